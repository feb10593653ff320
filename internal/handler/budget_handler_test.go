package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBudgets(t *testing.T) {
	sess := testSession(t, seededCollaborator())
	h := NewBudgetHandler()

	c, rec := newSessionContext(http.MethodGet, "/api/v1/budgets", "", sess)
	require.NoError(t, h.GetBudgets(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp BudgetSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Overview.Total)
	assert.Equal(t, 1, resp.Overview.OverBudget)
	assert.True(t, resp.Overview.Alert)

	require.Len(t, resp.Budgets, 2)
	assert.Equal(t, "Food", resp.Budgets[0].Budget.Category)
	assert.InDelta(t, 100.0, resp.Budgets[0].Status.Percent, 0.001)
	assert.True(t, resp.Budgets[0].Status.OverBudget)
	assert.InDelta(t, 40.0, resp.Budgets[1].Status.Percent, 0.001)
}

func TestCreateBudget(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewBudgetHandler()

	body := `{"category": "Shopping", "month": 3, "year": 2024, "limit_amount": "5000"}`
	c, rec := newSessionContext(http.MethodPost, "/api/v1/budgets", body, sess)
	require.NoError(t, h.CreateBudget(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, sess.ViewModel.BudgetStatuses(), 3)
}

func TestCreateBudget_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCalls  int
	}{
		{"zero limit", `{"category": "Rent", "month": 3, "year": 2024, "limit_amount": "0"}`, http.StatusBadRequest, 0},
		{"month out of range", `{"category": "Rent", "month": 13, "year": 2024, "limit_amount": "10"}`, http.StatusBadRequest, 0},
		{"duplicate", `{"category": "food", "month": 3, "year": 2024, "limit_amount": "10"}`, http.StatusConflict, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := seededCollaborator()
			sess := testSession(t, collab)
			h := NewBudgetHandler()

			c, rec := newSessionContext(http.MethodPost, "/api/v1/budgets", tt.body, sess)
			require.NoError(t, h.CreateBudget(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, collab.CallCount("CreateBudget"))
		})
	}
}
