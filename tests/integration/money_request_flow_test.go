package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMoneyRequestFlow(t *testing.T) {
	app := setupApp(t)
	guardianToken, childToken, householdID, guardianID, childID := app.setupFamily(t)

	// Child asks the guardian for money.
	body := fmt.Sprintf(`{"guardian_id":%q,"amount":1500,"reason":"School trip","category":"school"}`, guardianID)
	rec := app.request("POST", "/api/v1/households/"+householdID+"/requests", body, childToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request failed: %d %s", rec.Code, rec.Body.String())
	}
	request := parseJSON(t, rec)["request"].(map[string]interface{})
	requestID := request["id"].(string)
	if request["status"] != "pending" {
		t.Fatalf("expected pending request, got %v", request["status"])
	}

	// The guardian sees it in the approval queue.
	rec = app.request("GET", "/api/v1/households/"+householdID+"/requests/queue", "", guardianToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approval queue failed: %d %s", rec.Code, rec.Body.String())
	}
	queue := parseJSON(t, rec)["data"].([]interface{})
	if len(queue) != 1 {
		t.Fatalf("expected 1 pending request in queue, got %d", len(queue))
	}

	// Approval credits the child's account.
	rec = app.request("POST", "/api/v1/requests/"+requestID+"/approve", `{"notes":"Have fun"}`, guardianToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", rec.Code, rec.Body.String())
	}
	if balance := app.accountBalance(t, householdID, childID); balance != 1500 {
		t.Errorf("expected balance 1500 after approval, got %d", balance)
	}

	// A second approval conflicts and credits nothing.
	rec = app.request("POST", "/api/v1/requests/"+requestID+"/approve", "", guardianToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double approval, got %d", rec.Code)
	}
	if balance := app.accountBalance(t, householdID, childID); balance != 1500 {
		t.Errorf("expected balance unchanged after conflict, got %d", balance)
	}

	// The child sees the resolved request.
	rec = app.request("GET", "/api/v1/households/"+householdID+"/requests/mine?status=approved", "", childToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list own requests failed: %d %s", rec.Code, rec.Body.String())
	}
	mine := parseJSON(t, rec)["data"].([]interface{})
	if len(mine) != 1 {
		t.Fatalf("expected 1 approved request, got %d", len(mine))
	}

	// The guardian got a notification when the request was created.
	rec = app.request("GET", "/api/v1/notifications/unread-count", "", guardianToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread count failed: %d %s", rec.Code, rec.Body.String())
	}
	if count := parseJSON(t, rec)["unread_count"].(float64); count < 1 {
		t.Errorf("expected at least one unread notification for the guardian, got %v", count)
	}
}

func TestMoneyRequestRejection(t *testing.T) {
	app := setupApp(t)
	guardianToken, childToken, householdID, guardianID, childID := app.setupFamily(t)

	body := fmt.Sprintf(`{"guardian_id":%q,"amount":9900,"reason":"New game"}`, guardianID)
	rec := app.request("POST", "/api/v1/households/"+householdID+"/requests", body, childToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request failed: %d %s", rec.Code, rec.Body.String())
	}
	requestID := parseJSON(t, rec)["request"].(map[string]interface{})["id"].(string)

	// Children cannot resolve requests.
	rec = app.request("POST", "/api/v1/requests/"+requestID+"/reject", "", childToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for child resolving, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/requests/"+requestID+"/reject", `{"notes":"Not this month"}`, guardianToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject failed: %d %s", rec.Code, rec.Body.String())
	}
	if balance := app.accountBalance(t, householdID, childID); balance != 0 {
		t.Errorf("expected balance 0 after rejection, got %d", balance)
	}

	// Approval after rejection conflicts.
	rec = app.request("POST", "/api/v1/requests/"+requestID+"/approve", "", guardianToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 approving a rejected request, got %d", rec.Code)
	}
}
