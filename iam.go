package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/paylith/paylith-go/headers"
	"github.com/paylith/paylith-go/routes"
)

// IAMClient wraps the user-management endpoints the session core depends on.
// The wider IAM surface (groups, authorities, policies) lives with the
// calling application.
type IAMClient struct {
	client *Client
}

// CreateUserRequest is the payload for user creation and self-registration.
type CreateUserRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	MobileNumber string   `json:"mobileNumber,omitempty"`
	Authorities  []string `json:"authorities,omitempty"`
}

// CreateFirstAdmin bootstraps the first privileged account before any
// credential exists. It is the single caller of the bypass-authorization
// marker, which the pipeline strips before transmission.
func (i *IAMClient) CreateFirstAdmin(ctx context.Context, req CreateUserRequest) (UserProfile, error) {
	httpReq, err := i.client.newJSONRequest(ctx, http.MethodPost, routes.Users, req)
	if err != nil {
		return UserProfile{}, err
	}
	httpReq.Header.Set(headers.FirstAdminRegistration, "true")
	resp, err := i.client.send(httpReq)
	if err != nil {
		return UserProfile{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeProfileEnvelope(resp.Body)
}

// SelfRegister creates an account through the public registration endpoint.
func (i *IAMClient) SelfRegister(ctx context.Context, req CreateUserRequest) (UserProfile, error) {
	httpReq, err := i.client.newJSONRequest(ctx, http.MethodPost, routes.UsersRegister, req)
	if err != nil {
		return UserProfile{}, err
	}
	resp, err := i.client.send(httpReq)
	if err != nil {
		return UserProfile{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeProfileEnvelope(resp.Body)
}

// CheckUsernameAvailability reports whether a username is still free.
func (i *IAMClient) CheckUsernameAvailability(ctx context.Context, username string) (bool, error) {
	q := url.Values{}
	q.Set("username", username)
	httpReq, err := i.client.newJSONRequest(ctx, http.MethodGet, routes.UserIDValidate+"?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := i.client.send(httpReq)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	var payload struct {
		Available bool `json:"available"`
		Data      *struct {
			Available bool `json:"available"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, TransportError{Kind: KindClientError, Message: "decode availability response", Cause: err}
	}
	if payload.Data != nil {
		return payload.Data.Available, nil
	}
	return payload.Available, nil
}
