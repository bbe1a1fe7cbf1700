package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type auditedRow struct {
	ID    string `db:"id"`
	Notes string
}

type ledgerRow struct {
	auditedRow
	Kind    string `db:"kind"`
	Skipped int    `db:"-"`
	Amount  string `db:"amount"`
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "kind", "amount"}, ExtractDBColumns[ledgerRow]())
	assert.Equal(t, []string{"id", "kind", "amount"}, ExtractDBColumns[*ledgerRow]())
	assert.Nil(t, ExtractDBColumns[int]())
}
