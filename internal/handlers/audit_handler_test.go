package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/events"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/services"
)

type mockUndoService struct {
	restoreFn func(recordID uint, newName string, actor services.Actor, ip string) (uint, error)
	revertFn  func(recordID uint, actor services.Actor, ip string) (uint, error)
}

func (m *mockUndoService) Restore(recordID uint, newName string, actor services.Actor, ip string) (uint, error) {
	if m.restoreFn != nil {
		return m.restoreFn(recordID, newName, actor, ip)
	}
	return 1, nil
}

func (m *mockUndoService) Revert(recordID uint, actor services.Actor, ip string) (uint, error) {
	if m.revertFn != nil {
		return m.revertFn(recordID, actor, ip)
	}
	return 1, nil
}

var _ services.UndoServicer = (*mockUndoService)(nil)

func setupAuditRouter(handler *AuditHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("", injectUser(1, "dana", "admin"))
	g.GET("/audit", handler.GetAuditRecords)
	g.POST("/audit/restore/:type/:id", handler.RestoreRecord)
	g.POST("/audit/revert/:type/:id", handler.RevertRecord)
	g.DELETE("/audit", handler.PurgeRecords)
	return r
}

// deleteRecordFor returns a GetRecord stub serving a single record under the
// given resource type.
func deleteRecordFor(resourceType string) func(id uint) (*models.AuditRecord, error) {
	return func(id uint) (*models.AuditRecord, error) {
		return &models.AuditRecord{
			ID:           id,
			Action:       "service_deleted",
			ResourceType: resourceType,
			ResourceID:   4,
		}, nil
	}
}

func TestAuditHandler_GetAuditRecords(t *testing.T) {
	t.Run("passes filters through to the query", func(t *testing.T) {
		var captured services.AuditFilter
		audits := &mockAuditService{
			queryFn: func(filter services.AuditFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.AuditRecord{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewAuditHandler(audits, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET",
			"/audit?actor=dana&action=service_deleted&resource_type=service&from=2026-01-15&q=plex&critical=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Actor != "dana" || captured.Action != "service_deleted" || captured.ResourceType != "service" {
			t.Errorf("unexpected filter: %+v", captured)
		}
		if captured.FreeText != "plex" || !captured.CriticalOnly {
			t.Errorf("unexpected filter: %+v", captured)
		}
		if captured.From == nil || !captured.From.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected parsed from bound, got %v", captured.From)
		}
		if captured.To != nil {
			t.Errorf("expected no to bound, got %v", captured.To)
		}
	})

	t.Run("returns 400 on an unknown action", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET", "/audit?action=nonsense", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on an unknown resource type", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET", "/audit?resource_type=teapot", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on an unparseable timestamp", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "GET", "/audit?from=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_RestoreRecord(t *testing.T) {
	t.Run("returns the new resource id", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		undo := &mockUndoService{
			restoreFn: func(recordID uint, newName string, actor services.Actor, _ string) (uint, error) {
				if recordID != 12 {
					t.Errorf("expected record 12, got %d", recordID)
				}
				if newName != "" {
					t.Errorf("expected no replacement name, got %q", newName)
				}
				if actor.Name != "dana" {
					t.Errorf("expected actor dana, got %+v", actor)
				}
				return 40, nil
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/service/12", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["resource_id"] != float64(40) {
			t.Errorf("expected resource_id 40, got %s", rec.Body.String())
		}
	})

	t.Run("passes a replacement name through", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		var gotName string
		undo := &mockUndoService{
			restoreFn: func(_ uint, newName string, _ services.Actor, _ string) (uint, error) {
				gotName = newName
				return 41, nil
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/service/12", `{"new_name":"Plex-2"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != "Plex-2" {
			t.Errorf("expected Plex-2, got %q", gotName)
		}
	})

	t.Run("returns 409 on a name conflict", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		undo := &mockUndoService{
			restoreFn: func(_ uint, _ string, _ services.Actor, _ string) (uint, error) {
				return 0, apperrors.ErrNameConflict
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/service/12", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NAME_CONFLICT")
	})

	t.Run("returns 409 when the record was already consumed", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		undo := &mockUndoService{
			restoreFn: func(_ uint, _ string, _ services.Actor, _ string) (uint, error) {
				return 0, apperrors.ErrAlreadyConsumed
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/service/12", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_CONSUMED")
	})

	t.Run("returns 404 when the type segment does not match the record", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		handler := NewAuditHandler(audits, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/host/12", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECORD_NOT_FOUND")
	})

	t.Run("returns 400 on an unknown type segment", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/teapot/12", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for a missing record", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/restore/service/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECORD_NOT_FOUND")
	})
}

func TestAuditHandler_RevertRecord(t *testing.T) {
	t.Run("returns the resource id", func(t *testing.T) {
		audits := &mockAuditService{
			getRecordFn: func(id uint) (*models.AuditRecord, error) {
				return &models.AuditRecord{ID: id, Action: "host_updated", ResourceType: "host", ResourceID: 8}, nil
			},
		}
		undo := &mockUndoService{
			revertFn: func(recordID uint, _ services.Actor, _ string) (uint, error) {
				if recordID != 20 {
					t.Errorf("expected record 20, got %d", recordID)
				}
				return 8, nil
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/revert/host/20", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["resource_id"] != float64(8) {
			t.Errorf("expected resource_id 8, got %s", rec.Body.String())
		}
	})

	t.Run("returns 404 when the resource is gone", func(t *testing.T) {
		audits := &mockAuditService{
			getRecordFn: func(id uint) (*models.AuditRecord, error) {
				return &models.AuditRecord{ID: id, Action: "host_updated", ResourceType: "host", ResourceID: 8}, nil
			},
		}
		undo := &mockUndoService{
			revertFn: func(_ uint, _ services.Actor, _ string) (uint, error) {
				return 0, apperrors.ErrResourceGone
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/revert/host/20", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RESOURCE_GONE")
	})

	t.Run("returns 400 for a record that is not an update", func(t *testing.T) {
		audits := &mockAuditService{getRecordFn: deleteRecordFor("service")}
		undo := &mockUndoService{
			revertFn: func(_ uint, _ services.Actor, _ string) (uint, error) {
				return 0, apperrors.ErrNotRevertable
			},
		}
		handler := NewAuditHandler(audits, undo, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "POST", "/audit/revert/service/12", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_REVERTABLE")
	})
}

func TestAuditHandler_PurgeRecords(t *testing.T) {
	t.Run("returns the deleted count and broadcasts", func(t *testing.T) {
		audits := &mockAuditService{
			purgeFn: func(ids []uint, actor services.Actor, _ string) (int64, error) {
				if len(ids) != 3 {
					t.Errorf("expected 3 ids, got %v", ids)
				}
				if actor.Name != "dana" {
					t.Errorf("expected actor dana, got %+v", actor)
				}
				return 3, nil
			},
		}
		hub := events.NewHub()
		sub := hub.Subscribe()
		handler := NewAuditHandler(audits, &mockUndoService{}, hub)
		r := setupAuditRouter(handler)

		rec := doRequest(r, "DELETE", "/audit", `{"ids":[1,2,3]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["deleted_count"] != float64(3) {
			t.Errorf("expected deleted_count 3, got %s", rec.Body.String())
		}

		select {
		case ev := <-sub.Events():
			if ev.Category != "audit" {
				t.Errorf("expected an audit event, got %+v", ev)
			}
		default:
			t.Error("expected a change event to be published")
		}
	})

	t.Run("returns 400 on an empty id list", func(t *testing.T) {
		handler := NewAuditHandler(&mockAuditService{}, &mockUndoService{}, events.NewHub())
		r := setupAuditRouter(handler)

		rec := doRequest(r, "DELETE", "/audit", `{"ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
