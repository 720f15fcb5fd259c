package categories

import (
	"context"
	"net/http"

	"github.com/shelfwatch/pricesync/app/httputil"
	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

type CategoryResponse struct {
	Name       string `json:"name"`
	Products   int64  `json:"products"`
	Recognized bool   `json:"recognized"`
}

type CategoryProvider interface {
	CategoryCounts(ctx context.Context) ([]models.CategoryCount, error)
}

type CategoryHandler struct {
	repo       CategoryProvider
	vocabulary reconcile.Vocabulary
}

func NewCategoryHandler(r CategoryProvider, vocabulary reconcile.Vocabulary) *CategoryHandler {
	return &CategoryHandler{repo: r, vocabulary: vocabulary}
}

// HandleGetAll lists every stored category label with its product count.
// Labels outside the vocabulary are reported with recognized=false; they are
// repaired the next time the owning product is scraped.
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.CategoryCounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to fetch categories")
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(counts))
	for i, c := range counts {
		response[i] = CategoryResponse{
			Name:       c.Category,
			Products:   c.Products,
			Recognized: len(h.vocabulary) == 0 || h.vocabulary.Contains(c.Category),
		}
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}
