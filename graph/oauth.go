package graph

import (
	"context"
	"net/url"
	"strconv"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Exchanges an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, appID, appSecret, redirectURI, code string) (*TokenResponse, error) {
	params := url.Values{}
	params.Set("client_id", appID)
	params.Set("client_secret", appSecret)
	params.Set("redirect_uri", redirectURI)
	params.Set("code", code)

	var tok TokenResponse
	if err := c.getJSON(ctx, "oauth/access_token", params, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

type UserData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fetches the authenticated user's basic profile.
func (c *Client) GetUserData(ctx context.Context, accessToken string) (*UserData, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)

	var user UserData
	if err := c.getJSON(ctx, "me", params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type Page struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

type pageList struct {
	Data []Page `json:"data"`
}

// Lists the user's pages and their linked Instagram business accounts.
func (c *Client) GetPages(ctx context.Context, accessToken string) ([]Page, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,name,instagram_business_account")
	params.Set("limit", strconv.Itoa(100))

	var pages pageList
	if err := c.getJSON(ctx, "me/accounts", params, &pages); err != nil {
		return nil, err
	}
	return pages.Data, nil
}

type Profile struct {
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int64  `json:"followers_count"`
}

// Fetches profile metadata for an Instagram business account.
func (c *Client) GetProfile(ctx context.Context, igUserID, accessToken string) (*Profile, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "username,profile_picture_url,followers_count")

	var profile Profile
	if err := c.getJSON(ctx, igUserID, params, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
