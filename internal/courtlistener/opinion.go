package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNoText means the opinion exists but carries none of the known text fields
var ErrNoText = errors.New("no text field in opinion")

// textFields lists the opinion fields that may hold the body, in preference order
var textFields = []string{"html", "plain_text", "text", "opinion_text"}

// OpinionURL returns the single-record endpoint for an opinion id
func (c *Client) OpinionURL(id int64) string {
	return fmt.Sprintf("%s/api/rest/v4/opinions/%d/", c.baseURL, id)
}

// FetchOpinionText retrieves the body of one opinion. caseName is only used
// to warn when the API returns a differently named case.
func (c *Client) FetchOpinionText(ctx context.Context, id int64, caseName string) (string, error) {
	if id == 0 {
		return "", fmt.Errorf("opinion id is required")
	}

	rawURL := c.OpinionURL(id)
	c.logger.Info("Fetching opinion text", zap.String("case_name", caseName), zap.String("url", rawURL))

	var data map[string]any
	if err := c.getJSON(ctx, rawURL, &data); err != nil {
		return "", fmt.Errorf("fetch opinion %d: %w", id, err)
	}

	if apiName, _ := data["case_name"].(string); apiName != "" && namesDiffer(apiName, caseName) {
		c.logger.Warn("Case name mismatch, continuing with id-based text",
			zap.String("expected", caseName),
			zap.String("returned", apiName))
	}

	for _, field := range textFields {
		if text, _ := data[field].(string); strings.TrimSpace(text) != "" {
			c.logger.Debug("Using opinion text field", zap.String("field", field), zap.String("case_name", caseName))
			return text, nil
		}
	}

	c.logger.Warn("No text field found", zap.String("case_name", caseName), zap.Int64("opinion_id", id))
	return "", ErrNoText
}

// namesDiffer reports whether neither name contains the other, ignoring case
func namesDiffer(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return !strings.Contains(a, b) && !strings.Contains(b, a)
}
