package integration

import (
	"fmt"
	"net/http"
	"testing"

	"quarterdeck/internal/models"
)

// latestRecord fetches the newest audit record matching the action.
func (app *testApp) latestRecord(t *testing.T, token, action string) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/audit?action="+action, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit query failed: %d %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) == 0 {
		t.Fatalf("no %s record on the trail", action)
	}
	return data[0].(map[string]interface{})
}

func TestUndoFlow_RestoreDeletedService(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/services",
		`{"name":"Grafana","url":"http://grafana.local:3000","description":"dashboards"}`, token)
	service := parseJSON(t, rec)["service"].(map[string]interface{})
	oldID := service["id"].(float64)

	app.request("DELETE", fmt.Sprintf("/api/v1/services/%.0f", oldID), "", token)

	record := app.latestRecord(t, token, "service_deleted")
	recordID := record["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/restore/service/%.0f", recordID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore failed: %d %s", rec.Code, rec.Body.String())
	}
	newID := parseJSON(t, rec)["resource_id"].(float64)
	if newID == oldID {
		t.Errorf("restore must mint a new id, got %.0f twice", newID)
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/services/%.0f", newID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("restored service not found: %d", rec.Code)
	}
	restored := parseJSON(t, rec)["service"].(map[string]interface{})
	if restored["name"] != "Grafana" || restored["url"] != "http://grafana.local:3000" {
		t.Errorf("restored state does not match the snapshot: %v", restored)
	}

	// The capability is single use.
	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/restore/service/%.0f", recordID), "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a second restore, got %d", rec.Code)
	}

	// The restore itself landed on the trail.
	outcome := app.latestRecord(t, token, "service_restored")
	if outcome["resource_id"].(float64) != newID {
		t.Errorf("expected the restore record to point at the new resource, got %v", outcome["resource_id"])
	}
}

func TestUndoFlow_NameConflictRetry(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/services", `{"name":"Grafana","url":"http://grafana.local"}`, token)
	oldID := parseJSON(t, rec)["service"].(map[string]interface{})["id"].(float64)
	app.request("DELETE", fmt.Sprintf("/api/v1/services/%.0f", oldID), "", token)

	record := app.latestRecord(t, token, "service_deleted")
	recordID := record["id"].(float64)

	// Someone reuses the name before the restore.
	app.request("POST", "/api/v1/services", `{"name":"Grafana","url":"http://other.local"}`, token)

	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/restore/service/%.0f", recordID), "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "NAME_CONFLICT" {
		t.Fatalf("expected NAME_CONFLICT, got %v", errObj["code"])
	}

	// The failed attempt must not burn the record: retry under a new name.
	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/restore/service/%.0f", recordID),
		`{"new_name":"Grafana-2"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry failed: %d %s", rec.Code, rec.Body.String())
	}
	newID := parseJSON(t, rec)["resource_id"].(float64)

	rec = app.request("GET", fmt.Sprintf("/api/v1/services/%.0f", newID), "", token)
	restored := parseJSON(t, rec)["service"].(map[string]interface{})
	if restored["name"] != "Grafana-2" {
		t.Errorf("expected the replacement name, got %v", restored["name"])
	}
	if restored["url"] != "http://grafana.local" {
		t.Errorf("all other fields come from the snapshot, got %v", restored["url"])
	}
}

func TestUndoFlow_RevertUpdate(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/hosts",
		`{"name":"nas","mac_address":"aa:bb:cc:dd:ee:ff","ip_address":"192.168.1.50"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	hostID := parseJSON(t, rec)["host"].(map[string]interface{})["id"].(float64)

	rec = app.request("PUT", fmt.Sprintf("/api/v1/hosts/%.0f", hostID),
		`{"ip_address":"192.168.1.60"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	record := app.latestRecord(t, token, "host_updated")
	recordID := record["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/revert/host/%.0f", recordID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("revert failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/hosts/%.0f", hostID), "", token)
	host := parseJSON(t, rec)["host"].(map[string]interface{})
	if host["ip_address"] != "192.168.1.50" {
		t.Errorf("expected the prior ip back, got %v", host["ip_address"])
	}
	if host["name"] != "nas" {
		t.Errorf("fields outside the diff must be untouched, got %v", host["name"])
	}

	// Single use here too.
	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/revert/host/%.0f", recordID), "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a second revert, got %d", rec.Code)
	}
}

func TestUndoFlow_RevertAfterDeleteIsGone(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/hosts",
		`{"name":"nas","mac_address":"aa:bb:cc:dd:ee:ff"}`, token)
	hostID := parseJSON(t, rec)["host"].(map[string]interface{})["id"].(float64)
	app.request("PUT", fmt.Sprintf("/api/v1/hosts/%.0f", hostID), `{"description":"media box"}`, token)
	app.request("DELETE", fmt.Sprintf("/api/v1/hosts/%.0f", hostID), "", token)

	record := app.latestRecord(t, token, "host_updated")
	recordID := record["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/revert/host/%.0f", recordID), "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "RESOURCE_GONE" {
		t.Errorf("expected RESOURCE_GONE, got %v", errObj["code"])
	}
}

func TestUndoFlow_RestoredSSHHostLosesCredentials(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/ssh-hosts",
		`{"name":"backup","hostname":"backup.local","username":"root","password":"hunter2"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	oldID := parseJSON(t, rec)["ssh_host"].(map[string]interface{})["id"].(float64)
	app.request("DELETE", fmt.Sprintf("/api/v1/ssh-hosts/%.0f", oldID), "", token)

	record := app.latestRecord(t, token, "ssh_host_deleted")
	recordID := record["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/audit/restore/ssh_host/%.0f", recordID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore failed: %d %s", rec.Code, rec.Body.String())
	}
	newID := parseJSON(t, rec)["resource_id"].(float64)

	// The snapshot was masked, so the recreated entry has no password.
	var restored models.SSHHost
	if err := app.DB.First(&restored, uint(newID)).Error; err != nil {
		t.Fatalf("restored ssh host not in store: %v", err)
	}
	if restored.Password != "" || restored.PrivateKey != "" {
		t.Error("masked credentials must not reappear after a restore")
	}
	if restored.Hostname != "backup.local" {
		t.Errorf("non-sensitive fields come back, got %q", restored.Hostname)
	}
}
