package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/services"
)

type mockChildAccountService struct {
	enrollFn         func(householdID, guardianID, childID string) (*models.ChildAccount, error)
	getByChildFn     func(householdID, childID string) (*models.ChildAccount, error)
	updateLimitsFn   func(householdID, guardianID, childID string, daily, weekly, monthly, perTransaction, approvalThreshold *int64) (*models.ChildAccount, error)
	getSpendTotalsFn func(accountID string) (*services.SpendTotals, error)
	previewSpendFn   func(householdID, childID string, amount int64) (*services.SpendCheck, error)
	spendFn          func(householdID, childID string, amount int64, description string) (*models.SpendRecord, error)
}

func (m *mockChildAccountService) Enroll(householdID, guardianID, childID string) (*models.ChildAccount, error) {
	if m.enrollFn != nil {
		return m.enrollFn(householdID, guardianID, childID)
	}
	return &models.ChildAccount{}, nil
}

func (m *mockChildAccountService) GetByChild(householdID, childID string) (*models.ChildAccount, error) {
	if m.getByChildFn != nil {
		return m.getByChildFn(householdID, childID)
	}
	return &models.ChildAccount{}, nil
}

func (m *mockChildAccountService) GetByID(_ string) (*models.ChildAccount, error) {
	return &models.ChildAccount{}, nil
}

func (m *mockChildAccountService) UpdateLimits(householdID, guardianID, childID string, daily, weekly, monthly, perTransaction, approvalThreshold *int64) (*models.ChildAccount, error) {
	if m.updateLimitsFn != nil {
		return m.updateLimitsFn(householdID, guardianID, childID, daily, weekly, monthly, perTransaction, approvalThreshold)
	}
	return &models.ChildAccount{}, nil
}

func (m *mockChildAccountService) Credit(_ *gorm.DB, _ string, _ int64) error { return nil }
func (m *mockChildAccountService) Debit(_ *gorm.DB, _ string, _ int64) error  { return nil }

func (m *mockChildAccountService) GetSpendTotals(accountID string) (*services.SpendTotals, error) {
	if m.getSpendTotalsFn != nil {
		return m.getSpendTotalsFn(accountID)
	}
	return &services.SpendTotals{}, nil
}

func (m *mockChildAccountService) PreviewSpend(householdID, childID string, amount int64) (*services.SpendCheck, error) {
	if m.previewSpendFn != nil {
		return m.previewSpendFn(householdID, childID, amount)
	}
	return &services.SpendCheck{Allowed: true}, nil
}

func (m *mockChildAccountService) Spend(householdID, childID string, amount int64, description string) (*models.SpendRecord, error) {
	if m.spendFn != nil {
		return m.spendFn(householdID, childID, amount, description)
	}
	return &models.SpendRecord{}, nil
}

type mockHouseholdService struct {
	requireGuardianFn func(householdID, userID string) error
}

func (m *mockHouseholdService) CreateHousehold(_, _, _ string) (*models.Household, error) {
	return &models.Household{}, nil
}

func (m *mockHouseholdService) GetHouseholdByID(_ string) (*models.Household, error) {
	return &models.Household{}, nil
}

func (m *mockHouseholdService) AddMember(_, _ string, _ models.UserRole, _ string) (*models.HouseholdMember, error) {
	return &models.HouseholdMember{}, nil
}

func (m *mockHouseholdService) GetMembers(_ string) ([]models.HouseholdMember, error) {
	return nil, nil
}

func (m *mockHouseholdService) GetMember(_, _ string) (*models.HouseholdMember, error) {
	return &models.HouseholdMember{}, nil
}

func (m *mockHouseholdService) RequireMember(_, _ string) error { return nil }

func (m *mockHouseholdService) RequireGuardian(householdID, userID string) error {
	if m.requireGuardianFn != nil {
		return m.requireGuardianFn(householdID, userID)
	}
	return nil
}

const testChildID = "0195f7a2-0000-7000-8000-000000000005"

func setupChildAccountRouter(handler *ChildAccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/households/:id/accounts", handler.EnrollChild)
	auth.GET("/households/:id/accounts/:childId", handler.GetAccount)
	auth.PUT("/households/:id/accounts/:childId/limits", handler.UpdateLimits)
	auth.POST("/households/:id/spend", handler.Spend)
	auth.POST("/households/:id/accounts/:childId/spend/preview", handler.PreviewSpend)
	return r
}

func TestChildAccountHandler_Spend(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockChildAccountService{
			spendFn: func(_, childID string, amount int64, description string) (*models.SpendRecord, error) {
				return &models.SpendRecord{
					ChildAccountID: testChildID,
					Amount:         amount,
					Description:    description,
				}, nil
			},
		}
		handler := NewChildAccountHandler(svc, &mockHouseholdService{}, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "POST", "/households/"+testHouseholdID+"/spend",
			`{"amount":500,"description":"Ice cream"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("surfaces limit denial", func(t *testing.T) {
		svc := &mockChildAccountService{
			spendFn: func(_, _ string, _ int64, _ string) (*models.SpendRecord, error) {
				return nil, apperrors.WithMessage(apperrors.ErrSpendLimitExceeded, "Daily limit exceeded")
			},
		}
		handler := NewChildAccountHandler(svc, &mockHouseholdService{}, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "POST", "/households/"+testHouseholdID+"/spend", `{"amount":999999}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SPEND_LIMIT_EXCEEDED")
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		handler := NewChildAccountHandler(&mockChildAccountService{}, &mockHouseholdService{}, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "POST", "/households/"+testHouseholdID+"/spend", `{"amount":-5}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestChildAccountHandler_GetAccount(t *testing.T) {
	t.Run("child reads own account without guardian check", func(t *testing.T) {
		guardianChecked := false
		household := &mockHouseholdService{
			requireGuardianFn: func(_, _ string) error {
				guardianChecked = true
				return nil
			},
		}
		handler := NewChildAccountHandler(&mockChildAccountService{}, household, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "GET", "/households/"+testHouseholdID+"/accounts/"+testUserID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if guardianChecked {
			t.Error("expected no guardian check for a self read")
		}
	})

	t.Run("reading another member requires guardian", func(t *testing.T) {
		household := &mockHouseholdService{
			requireGuardianFn: func(_, _ string) error {
				return apperrors.ErrForbidden
			},
		}
		handler := NewChildAccountHandler(&mockChildAccountService{}, household, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "GET", "/households/"+testHouseholdID+"/accounts/"+testChildID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestChildAccountHandler_UpdateLimits(t *testing.T) {
	t.Run("passes nil for omitted limits", func(t *testing.T) {
		var gotDaily, gotWeekly *int64
		svc := &mockChildAccountService{
			updateLimitsFn: func(_, _, _ string, daily, weekly, _, _, _ *int64) (*models.ChildAccount, error) {
				gotDaily, gotWeekly = daily, weekly
				return &models.ChildAccount{}, nil
			},
		}
		handler := NewChildAccountHandler(svc, &mockHouseholdService{}, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "PUT", "/households/"+testHouseholdID+"/accounts/"+testChildID+"/limits",
			`{"daily_limit":1000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotDaily == nil || *gotDaily != 1000 {
			t.Errorf("expected daily limit 1000, got %v", gotDaily)
		}
		if gotWeekly != nil {
			t.Errorf("expected omitted weekly limit to stay nil, got %v", gotWeekly)
		}
	})
}

func TestChildAccountHandler_PreviewSpend(t *testing.T) {
	t.Run("returns denial reason without error status", func(t *testing.T) {
		svc := &mockChildAccountService{
			previewSpendFn: func(_, _ string, _ int64) (*services.SpendCheck, error) {
				return &services.SpendCheck{Allowed: false, Reason: "Insufficient balance"}, nil
			},
		}
		handler := NewChildAccountHandler(svc, &mockHouseholdService{}, &mockAuditService{})
		r := setupChildAccountRouter(handler)

		rec := doRequest(r, "POST", "/households/"+testHouseholdID+"/accounts/"+testUserID+"/spend/preview",
			`{"amount":5000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		check := result["check"].(map[string]interface{})
		if check["allowed"] != false {
			t.Errorf("expected allowed=false, got %v", check["allowed"])
		}
		if check["reason"] != "Insufficient balance" {
			t.Errorf("expected denial reason, got %v", check["reason"])
		}
	})
}
