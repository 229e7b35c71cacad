package sqlite

import (
	"shop/internal/domain/models"
	"strings"

	"github.com/uptrace/bun"
)

func applyPage(q *bun.SelectQuery, page models.PageRequest) *bun.SelectQuery {
	q = applySort(q, page.Sort)
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}

// applySort orders by the requested columns and always breaks ties by id,
// so pages never overlap.
func applySort(q *bun.SelectQuery, fields []models.SortField) *bun.SelectQuery {
	for _, f := range fields {
		if f.Desc {
			q = q.OrderExpr("?TableAlias.? DESC", bun.Ident(f.Column))
		} else {
			q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(f.Column))
		}
	}
	return q.OrderExpr("?TableAlias.id ASC")
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s literally anywhere in the column.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
