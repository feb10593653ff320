package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

func (c *Client) ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error) {
	var rules []domain.CategoryRule
	if err := c.doJSON(ctx, "list_category_rules", http.MethodGet, "/category-rules/", nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) CreateCategoryRule(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	var rule domain.CategoryRule
	if err := c.doJSON(ctx, "create_category_rule", http.MethodPost, "/category-rules/", nil, input, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListCustomCategories returns the rules the signed-in user created
func (c *Client) ListCustomCategories(ctx context.Context) ([]domain.CategoryRule, error) {
	var rules []domain.CategoryRule
	if err := c.doJSON(ctx, "list_custom_categories", http.MethodGet, "/categories/custom/my-categories", nil, nil, &rules); err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].IsCustom = true
	}
	return rules, nil
}

func (c *Client) CreateCustomCategory(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	var rule domain.CategoryRule
	if err := c.doJSON(ctx, "create_custom_category", http.MethodPost, "/categories/custom", nil, input, &rule); err != nil {
		return nil, err
	}
	rule.IsCustom = true
	return &rule, nil
}

func (c *Client) UpdateCustomCategory(ctx context.Context, id int64, input domain.CategoryRuleInput) (*domain.CategoryRule, error) {
	var rule domain.CategoryRule
	if err := c.doJSON(ctx, "update_custom_category", http.MethodPut, fmt.Sprintf("/categories/custom/%d", id), nil, input, &rule); err != nil {
		return nil, err
	}
	rule.IsCustom = true
	return &rule, nil
}

func (c *Client) DeleteCustomCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete_custom_category", http.MethodDelete, fmt.Sprintf("/categories/custom/%d", id), nil, nil, nil)
}
