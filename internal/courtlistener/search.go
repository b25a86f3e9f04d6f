package courtlistener

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ppiankov/casewatch/internal/model"
	"go.uber.org/zap"
)

// Query is the fixed boolean keyword search
const Query = `("alien enemy act" OR "el salvador" OR "cecot" OR "terrorism confinement center") AND ` +
	`(wrongful OR wrongfully OR unlawful OR unlawfully) AND ` +
	`(deportation OR deported OR detention OR detained OR removal OR removed OR "habeas corpus" OR ` +
	`"due process" OR "ICE" OR "Immigration and Customs Enforcement" OR "Department of Homeland Security" OR ` +
	`"DHS" OR "Trump" OR "Noem" OR "DOJ" OR "Trump Administration")`

var statusFlags = []string{
	"stat_Published",
	"stat_Unpublished",
	"stat_Errata",
	"stat_Separate",
	"stat_In-chambers",
	"stat_Relating-to",
	"stat_Unknown",
}

// SearchOptions controls pagination and text retrieval
type SearchOptions struct {
	MaxPages  int  // 0 = follow every page
	FetchText bool // fetch opinion text for every hit
}

type searchPage struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []searchItem `json:"results"`
}

type searchItem struct {
	CaseName     string `json:"caseName"`
	DocketNumber string `json:"docketNumber"`
	Court        string `json:"court"`
	DateFiled    string `json:"dateFiled"`
	AbsoluteURL  string `json:"absolute_url"`
	ClusterID    int64  `json:"cluster_id"`
	Opinions     []struct {
		ID int64 `json:"id"`
	} `json:"opinions"`
}

func (it searchItem) caseID() int64 {
	if len(it.Opinions) > 0 && it.Opinions[0].ID != 0 {
		return it.Opinions[0].ID
	}
	return it.ClusterID
}

// SearchURL returns the first-page URL of the fixed query
func (c *Client) SearchURL() string {
	q := url.Values{}
	q.Set("q", Query)
	q.Set("type", "o")
	q.Set("order_by", "score desc")
	for _, flag := range statusFlags {
		q.Set(flag, "on")
	}
	if c.filedAfter != "" {
		q.Set("filed_after", c.filedAfter)
	}
	return c.baseURL + "/api/rest/v4/search/?" + q.Encode()
}

// Search follows the next cursor until it runs out or MaxPages is reached.
// When a page fails the hits gathered so far are returned with the error.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]model.SearchResult, error) {
	if c.apiKey == "" {
		c.logger.Error("CourtListener API key is missing")
		return nil, ErrMissingAPIKey
	}

	var results []model.SearchResult
	nextURL := c.SearchURL()
	pageNum := 1

	for nextURL != "" {
		c.logger.Info("Fetching search page", zap.Int("page", pageNum), zap.String("url", nextURL))

		var page searchPage
		if err := c.getJSON(ctx, nextURL, &page); err != nil {
			c.logger.Error("Search page failed", zap.Int("page", pageNum), zap.Error(err))
			return results, fmt.Errorf("search page %d: %w", pageNum, err)
		}

		c.logger.Info("Search page returned",
			zap.Int("page", pageNum),
			zap.Int("results", len(page.Results)),
			zap.Int("total", page.Count))

		for _, item := range page.Results {
			hit := model.SearchResult{
				CaseName:     item.CaseName,
				DocketNumber: item.DocketNumber,
				Court:        item.Court,
				DateFiled:    item.DateFiled,
				AbsoluteURL:  item.AbsoluteURL,
				CaseID:       item.caseID(),
			}
			c.logger.Debug("Search hit",
				zap.String("case_name", hit.CaseName),
				zap.Int64("case_id", hit.CaseID))

			if opts.FetchText && hit.CaseID != 0 {
				text, err := c.FetchOpinionText(ctx, hit.CaseID, hit.CaseName)
				if err != nil {
					c.logger.Warn("Opinion text unavailable", zap.String("case_name", hit.CaseName), zap.Error(err))
					hit.TextErr = err
				}
				hit.Text = text
			}

			results = append(results, hit)
		}

		if page.Next == nil || *page.Next == "" {
			c.logger.Info("No more pages to fetch")
			break
		}
		if opts.MaxPages > 0 && pageNum >= opts.MaxPages {
			c.logger.Info("Reached maximum number of pages", zap.Int("max_pages", opts.MaxPages))
			break
		}
		nextURL = *page.Next
		pageNum++
	}

	c.logger.Info("Search complete", zap.Int("cases", len(results)), zap.Int("pages", pageNum))
	return results, nil
}
