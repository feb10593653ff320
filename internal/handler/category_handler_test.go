package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRule_AcceptsCommaSeparatedKeywords(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewCategoryHandler()

	body := `{"category_name": "Coffee", "keywords": "starbucks, ccd ,", "merchants": ["Blue Tokai"]}`
	c, rec := newSessionContext(http.MethodPost, "/api/v1/category-rules", body, sess)
	require.NoError(t, h.CreateRule(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var rule domain.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.Equal(t, domain.KeywordList{"starbucks", "ccd"}, rule.Keywords)
	assert.Equal(t, domain.KeywordList{"Blue Tokai"}, rule.Merchants)
}

func TestCreateRule_RequiresKeywordOrMerchant(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewCategoryHandler()

	c, rec := newSessionContext(http.MethodPost, "/api/v1/category-rules", `{"category_name": "Coffee", "keywords": " , "}`, sess)
	require.NoError(t, h.CreateRule(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, collab.CallCount("CreateCategoryRule"))
}

func TestGetRules_Query(t *testing.T) {
	collab := seededCollaborator()
	collab.Rules = []domain.CategoryRule{
		{ID: 1, CategoryName: "Food", Keywords: domain.KeywordList{"swiggy", "zomato"}},
		{ID: 2, CategoryName: "Travel", Merchants: domain.KeywordList{"Uber"}},
	}
	sess := testSession(t, collab)
	h := NewCategoryHandler()

	c, rec := newSessionContext(http.MethodGet, "/api/v1/category-rules?q=ZOMATO", "", sess)
	require.NoError(t, h.GetRules(c))

	var rules []domain.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, int64(1), rules[0].ID)
}

func TestCustomCategories_Lifecycle(t *testing.T) {
	collab := seededCollaborator()
	sess := testSession(t, collab)
	h := NewCategoryHandler()

	c, rec := newSessionContext(http.MethodPost, "/api/v1/categories/custom", `{"category_name": "Pets", "keywords": ["vet"]}`, sess)
	require.NoError(t, h.CreateCustomCategory(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.IsCustom)

	// Same name again conflicts
	c, rec = newSessionContext(http.MethodPost, "/api/v1/categories/custom", `{"category_name": "pets", "keywords": ["dog"]}`, sess)
	require.NoError(t, h.CreateCustomCategory(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	id := jsonID(created.ID)
	c, rec = newSessionContext(http.MethodPut, "/api/v1/categories/custom/"+id, `{"category_name": "Pet Care", "keywords": ["vet", "groomer"]}`, sess)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.UpdateCustomCategory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newSessionContext(http.MethodGet, "/api/v1/categories/custom", "", sess)
	require.NoError(t, h.GetCustomCategories(c))
	var list []domain.CategoryRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Pet Care", list[0].CategoryName)

	c, rec = newSessionContext(http.MethodDelete, "/api/v1/categories/custom/"+id, "", sess)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.DeleteCustomCategory(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, collab.Custom)

	c, rec = newSessionContext(http.MethodDelete, "/api/v1/categories/custom/"+id, "", sess)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.DeleteCustomCategory(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
