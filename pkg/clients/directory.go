// Package clients provides access to the influencer and staff directory
// services. Display fields are snapshotted from these directories when a
// collaboration is created.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	econtext "github.com/Ramsey-B/dahlia/pkg/context"
	"github.com/Ramsey-B/dahlia/pkg/httpclient"
	"github.com/Ramsey-B/dahlia/pkg/metrics"
	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// InfluencerDirectory resolves influencer profiles
type InfluencerDirectory interface {
	GetInfluencer(ctx context.Context, id string) (*models.InfluencerProfile, error)
}

// StaffDirectory resolves staff members
type StaffDirectory interface {
	GetStaff(ctx context.Context, id string) (*models.StaffMember, error)
}

type influencerClient struct {
	client  *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewInfluencerDirectory creates an HTTP-backed influencer directory client
func NewInfluencerDirectory(client *httpclient.Client, baseURL string, logger ectologger.Logger) InfluencerDirectory {
	return &influencerClient{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *influencerClient) GetInfluencer(ctx context.Context, id string) (*models.InfluencerProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "clients.InfluencerDirectory.GetInfluencer")
	defer span.End()

	url := fmt.Sprintf("%s/api/v1/influencers/%s", c.baseURL, id)
	resp, err := c.client.Get(ctx, url, directoryHeaders(ctx))
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues("influencer_directory", "error").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("influencer_id", id).Error("Influencer directory request failed")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "influencer directory unavailable")
	}
	metrics.HTTPRequestsTotal.WithLabelValues("influencer_directory", strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "influencer %s not found", id)
	case resp.StatusCode != http.StatusOK:
		c.logger.WithContext(ctx).WithFields(map[string]any{"influencer_id": id, "status_code": resp.StatusCode}).Error("Influencer directory returned an error")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "influencer directory unavailable")
	}

	var profile models.InfluencerProfile
	if err := json.Unmarshal(resp.Body, &profile); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("influencer_id", id).Error("Failed to decode influencer profile")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "influencer directory returned an invalid response")
	}
	return &profile, nil
}

type staffClient struct {
	client  *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewStaffDirectory creates an HTTP-backed staff directory client
func NewStaffDirectory(client *httpclient.Client, baseURL string, logger ectologger.Logger) StaffDirectory {
	return &staffClient{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *staffClient) GetStaff(ctx context.Context, id string) (*models.StaffMember, error) {
	ctx, span := tracing.StartSpan(ctx, "clients.StaffDirectory.GetStaff")
	defer span.End()

	url := fmt.Sprintf("%s/api/v1/staff/%s", c.baseURL, id)
	resp, err := c.client.Get(ctx, url, directoryHeaders(ctx))
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues("staff_directory", "error").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("staff_id", id).Error("Staff directory request failed")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "staff directory unavailable")
	}
	metrics.HTTPRequestsTotal.WithLabelValues("staff_directory", strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "staff member %s not found", id)
	case resp.StatusCode != http.StatusOK:
		c.logger.WithContext(ctx).WithFields(map[string]any{"staff_id": id, "status_code": resp.StatusCode}).Error("Staff directory returned an error")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "staff directory unavailable")
	}

	var member models.StaffMember
	if err := json.Unmarshal(resp.Body, &member); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("staff_id", id).Error("Failed to decode staff member")
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "staff directory returned an invalid response")
	}
	return &member, nil
}

func directoryHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{
		"Accept": "application/json",
	}
	if tenantID := econtext.GetTenantID(ctx); tenantID != "" {
		headers["X-Tenant-ID"] = tenantID
	}
	if requestID := econtext.GetRequestID(ctx); requestID != "" {
		headers["X-Request-ID"] = requestID
	}
	return headers
}
