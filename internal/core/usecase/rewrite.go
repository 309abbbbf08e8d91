package usecase

import (
	"strings"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// Queries at or under this token count are treated as potentially referential
// ("what about grade 3?", "explain more") and borrow the previous user turn.
const rewriteTokenThreshold = 5

// rewriteRetrievalQuery decides the query used for retrieval only. The literal
// query shown to the generation collaborator is never changed.
func rewriteRetrievalQuery(query string, history []domain.Turn) string {
	if len(strings.Fields(query)) > rewriteTokenThreshold {
		return query
	}
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role != domain.RoleUser {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		return turn.Content + " " + query
	}
	return query
}
