package integration

import (
	"net/http"
	"testing"

	"quarterdeck/internal/models"
)

func TestAuth_LoginAndProfile(t *testing.T) {
	app := setupApp(t)
	token, userID := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["id"].(float64) != float64(userID) || user["username"] != "dana" {
		t.Errorf("unexpected profile: %v", user)
	}
}

func TestAuth_RejectsBadToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/profile", "", "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/audit", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestAuth_FailedLoginIsRecorded(t *testing.T) {
	app := setupApp(t)
	token, _ := app.seedOperator(t, "dana", models.RoleUser)

	rec := app.request("POST", "/api/v1/auth/login",
		`{"username":"dana","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/audit?action=login_failed", "", token)
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Fatalf("expected 1 login_failed record, got %v", result["total_items"])
	}
	record := result["data"].([]interface{})[0].(map[string]interface{})
	if record["actor_name"] != models.SystemActor {
		t.Errorf("failed logins are not attributed to a user, got %v", record["actor_name"])
	}

	// The critical filter surfaces it.
	rec = app.request("GET", "/api/v1/audit?critical=true", "", token)
	data := parseJSON(t, rec)["data"].([]interface{})
	found := false
	for _, raw := range data {
		if raw.(map[string]interface{})["action"] == "login_failed" {
			found = true
		}
	}
	if !found {
		t.Error("expected login_failed in the critical feed")
	}
}

func TestAuth_UnknownUsernameStillFails(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/auth/login",
		`{"username":"ghost","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", errObj["code"])
	}
}
