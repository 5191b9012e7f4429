package integration

import (
	"fmt"
	"net/http"
	"testing"

	"quarterdeck/internal/models"
)

func TestAuditFlow_MutationsLandOnTheTrail(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	// Create, update, delete a service through the API.
	rec := app.request("POST", "/api/v1/services",
		`{"name":"Plex","url":"http://plex.local:32400"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	service := parseJSON(t, rec)["service"].(map[string]interface{})
	serviceID := service["id"].(float64)

	rec = app.request("PUT", fmt.Sprintf("/api/v1/services/%.0f", serviceID),
		`{"url":"http://plex.local:32401"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/services/%.0f", serviceID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}

	// The trail holds the login plus all three mutations, newest first.
	rec = app.request("GET", "/api/v1/audit", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("query failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 4 {
		t.Fatalf("expected 4 records, got %v: %s", result["total_items"], rec.Body.String())
	}
	data := result["data"].([]interface{})
	wantOrder := []string{"service_deleted", "service_updated", "service_created", "login"}
	for i, want := range wantOrder {
		record := data[i].(map[string]interface{})
		if record["action"] != want {
			t.Errorf("record %d: expected %s, got %v", i, want, record["action"])
		}
	}

	// Every mutation record carries the actor.
	deleted := data[0].(map[string]interface{})
	if deleted["actor_name"] != "dana" {
		t.Errorf("expected actor dana, got %v", deleted["actor_name"])
	}
	if deleted["resource_id"].(float64) != serviceID {
		t.Errorf("expected resource id %.0f, got %v", serviceID, deleted["resource_id"])
	}
}

func TestAuditFlow_FilteredFeed(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	app.request("POST", "/api/v1/services", `{"name":"Plex","url":"http://plex.local"}`, token)
	app.request("POST", "/api/v1/hosts", `{"name":"nas","mac_address":"aa:bb:cc:dd:ee:ff"}`, token)

	rec := app.request("GET", "/api/v1/audit?resource_type=host", "", token)
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Fatalf("expected 1 host record, got %v", result["total_items"])
	}
	record := result["data"].([]interface{})[0].(map[string]interface{})
	if record["action"] != "host_created" {
		t.Errorf("expected host_created, got %v", record["action"])
	}

	// Free text reaches into the stored payloads.
	rec = app.request("GET", "/api/v1/audit?q=plex", "", token)
	result = parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Errorf("expected 1 match for plex, got %v", result["total_items"])
	}

	rec = app.request("GET", "/api/v1/audit?action=bogus", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown action, got %d", rec.Code)
	}
}

func TestAuditFlow_PurgeIsAdminOnlyAndAudited(t *testing.T) {
	app := setupApp(t)
	adminToken, _ := app.seedOperator(t, "root", models.RoleAdmin)
	userToken, _ := app.seedOperator(t, "dana", models.RoleUser)

	app.request("POST", "/api/v1/services", `{"name":"Plex","url":"http://plex.local"}`, userToken)

	rec := app.request("GET", "/api/v1/audit?action=service_created", "", adminToken)
	record := parseJSON(t, rec)["data"].([]interface{})[0].(map[string]interface{})
	recordID := record["id"].(float64)

	body := fmt.Sprintf(`{"ids":[%.0f]}`, recordID)

	rec = app.request("DELETE", "/api/v1/audit", body, userToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a regular operator, got %d", rec.Code)
	}

	rec = app.request("DELETE", "/api/v1/audit", body, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("purge failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["deleted_count"].(float64) != 1 {
		t.Errorf("expected 1 deleted, got %s", rec.Body.String())
	}

	// The purge itself is on the trail; the purged record is gone.
	rec = app.request("GET", "/api/v1/audit?action=audit_purged", "", adminToken)
	if parseJSON(t, rec)["total_items"].(float64) != 1 {
		t.Error("expected the purge summary record")
	}
	rec = app.request("GET", "/api/v1/audit?action=service_created", "", adminToken)
	if parseJSON(t, rec)["total_items"].(float64) != 0 {
		t.Error("expected the purged record to be gone")
	}
}
