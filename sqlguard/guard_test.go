package sqlguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectsNonSelectStatements(t *testing.T) {
	cases := []string{
		"DELETE FROM Accounts",
		"UPDATE Accounts SET balance = 0",
		"  drop table Accounts",
		"EXEC sp_help",
		"",
		"   ",
	}
	for _, q := range cases {
		_, err := Sanitize(q, 10)
		assert.ErrorIs(t, err, ErrNotAReadStatement, "query: %q", q)
	}
}

func TestAcceptsSelectCaseInsensitive(t *testing.T) {
	for _, q := range []string{
		"SELECT * FROM Accounts",
		"select * from Accounts",
		"  Select 1  ",
	} {
		_, err := Sanitize(q, 10)
		assert.NoError(t, err, "query: %q", q)
	}
}

func TestRejectsProhibitedKeywordTokens(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM Accounts; DROP TABLE Accounts":  "DROP",
		"SELECT * FROM Accounts WHERE id IN (DELETE)":  "DELETE",
		"SELECT 1; TRUNCATE TABLE Accounts":            "TRUNCATE",
		"SELECT * FROM t;insert INTO t VALUES (1)":     "INSERT",
	}
	for q, kw := range cases {
		_, err := Sanitize(q, 10)
		require.Error(t, err, "query: %q", q)

		var pke *ProhibitedKeywordError
		require.True(t, errors.As(err, &pke), "query: %q", q)
		assert.Equal(t, kw, pke.Keyword)
	}
}

func TestKeywordSubstringsInIdentifiersPass(t *testing.T) {
	cases := []string{
		"SELECT created_at FROM Accounts",
		"SELECT updated_by, inserted_on FROM Audit",
		"SELECT * FROM dropped_calls",
		"SELECT creates FROM verbs",
	}
	for _, q := range cases {
		_, err := Sanitize(q, 10)
		assert.NoError(t, err, "query: %q", q)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100, Clamp(0)) // missing limit defaults before clamping
	assert.Equal(t, 1, Clamp(-3))
	assert.Equal(t, 1000, Clamp(5000))
	assert.Equal(t, 1, Clamp(1))
	assert.Equal(t, 250, Clamp(250))
	assert.Equal(t, 1000, Clamp(1000))
}

func TestInsertsTopAfterSelectKeyword(t *testing.T) {
	sq, err := Sanitize("SELECT * FROM Accounts", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 100 * FROM Accounts", sq.Bounded)
	assert.Equal(t, 100, sq.EffectiveLimit)

	sq, err = Sanitize("select name from Customers where city = 'Oslo'", 25)
	require.NoError(t, err)
	assert.Equal(t, "select TOP 25 name from Customers where city = 'Oslo'", sq.Bounded)
	assert.Equal(t, 25, sq.EffectiveLimit)
}

func TestExistingLimitClausePassesThroughUnchanged(t *testing.T) {
	for _, q := range []string{
		"SELECT TOP 5 * FROM Accounts",
		"SELECT * FROM Accounts LIMIT 5",
		"select top 5 * from Accounts",
	} {
		sq, err := Sanitize(q, 7)
		require.NoError(t, err, "query: %q", q)
		assert.Equal(t, q, sq.Bounded, "query: %q", q)
		// the clamp computation is still reported for observability
		assert.Equal(t, 7, sq.EffectiveLimit)
	}
}

func TestLimitLikeIdentifierStillGetsBounded(t *testing.T) {
	// "limit_amount" contains LIMIT only as a substring, so the statement
	// has no limiting clause and must be bounded.
	sq, err := Sanitize("SELECT limit_amount FROM Accounts", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 100 limit_amount FROM Accounts", sq.Bounded)
}

func TestCustomDenylist(t *testing.T) {
	g := New("MERGE")

	_, err := g.Sanitize("SELECT 1; MERGE INTO t USING s ON 1=1", 10)
	var pke *ProhibitedKeywordError
	require.True(t, errors.As(err, &pke))
	assert.Equal(t, "MERGE", pke.Keyword)

	// default keywords are not part of the custom set
	_, err = g.Sanitize("SELECT 1; DROP TABLE t", 10)
	assert.NoError(t, err)
}

func TestOriginalPreserved(t *testing.T) {
	q := "SELECT * FROM Accounts"
	sq, err := Sanitize(q, 3)
	require.NoError(t, err)
	assert.Equal(t, q, sq.Original)
	assert.NotEqual(t, sq.Original, sq.Bounded)
}
