package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/automation/webhook"

	"github.com/labstack/echo/v4"
)

// Webhook subscription handshake: Meta calls this once when the webhook is
// registered, and expects the challenge echoed back if the verify token
// matches.
func (s *Server) handleWebhookVerify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.NoContent(http.StatusForbidden)
}

// Inbound webhook delivery. Once the signature checks out the delivery is
// always acknowledged with 200: any business-logic fault downstream must not
// cause the platform to back off and re-deliver.
func (s *Server) handleWebhookDelivery(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "webhookDelivery")
	defer span.End()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if s.appSecret != "" {
		sig := c.Request().Header.Get("X-Hub-Signature-256")
		if !webhook.VerifySignature(s.appSecret, body, sig) {
			webhookBadSignature.Inc()
			s.logger.Warn("rejecting webhook delivery with bad signature")
			return c.NoContent(http.StatusForbidden)
		}
	}

	s.engine.ProcessDelivery(ctx, body)
	return c.String(http.StatusOK, "EVENT_RECEIVED")
}

// OAuth callback: exchanges the code, resolves the linked Instagram business
// account, and registers (or refreshes) the account record.
func (s *Server) handleOAuthCallback(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "oauthCallback")
	defer span.End()

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing code parameter"})
	}

	tok, err := s.graph.ExchangeCode(ctx, s.appID, s.appSecret, s.redirectURL, code)
	if err != nil {
		s.logger.Warn("OAuth code exchange failed", "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "token exchange failed"})
	}

	pages, err := s.graph.GetPages(ctx, tok.AccessToken)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "page listing failed"})
	}
	var acct *rulestore.AccountRecord
	for _, page := range pages {
		if page.InstagramBusinessAccount == nil {
			continue
		}
		igID := page.InstagramBusinessAccount.ID
		profile, err := s.graph.GetProfile(ctx, igID, tok.AccessToken)
		if err != nil {
			s.logger.Warn("profile fetch failed", "account", igID, "err", err)
			continue
		}
		acct = &rulestore.AccountRecord{
			PlatformID:  igID,
			Username:    profile.Username,
			AccessToken: tok.AccessToken,
			PageID:      page.ID,
		}
		break
	}
	if acct == nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "no linked Instagram business account"})
	}

	if err := s.store.UpsertAccount(ctx, acct); err != nil {
		s.logger.Error("failed to persist account", "account", acct.PlatformID, "err", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	// the cached copy (if any) carries the old token
	if err := s.cache.Purge(ctx, acct.PlatformID); err != nil {
		s.logger.Warn("account cache purge failed", "account", acct.PlatformID, "err", err)
	}
	oauthConnects.Inc()
	s.logger.Info("connected account", "account", acct.PlatformID, "username", acct.Username)

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"account":  acct.PlatformID,
		"username": acct.Username,
	})
}

func (s *Server) accountFromParam(c echo.Context) (*rulestore.AccountRecord, error) {
	acct, err := s.store.GetAccountByPlatformID(c.Request().Context(), c.Param("account"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError)
	}
	if acct == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "account not connected")
	}
	return acct, nil
}

func (s *Server) handleListMedia(c echo.Context) error {
	acct, err := s.accountFromParam(c)
	if err != nil {
		return err
	}
	media, err := s.graph.GetMedia(c.Request().Context(), acct.PlatformID, acct.AccessToken)
	if err != nil {
		s.logger.Warn("media listing failed", "account", acct.PlatformID, "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "media listing failed"})
	}
	return c.JSON(http.StatusOK, media)
}

func (s *Server) handleListRules(c echo.Context) error {
	acct, err := s.accountFromParam(c)
	if err != nil {
		return err
	}
	rules, err := s.store.ListRules(c.Request().Context(), acct.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, rules)
}

type createRuleRequest struct {
	MediaID      string `json:"mediaId"`
	TriggerKind  string `json:"triggerKind"`
	Keyword      string `json:"keyword"`
	DMMessage    string `json:"dmMessage"`
	ButtonTitle  string `json:"buttonTitle"`
	ButtonURL    string `json:"buttonUrl"`
	CommentReply string `json:"commentReply"`
	Active       *bool  `json:"active"`
}

func (s *Server) handleCreateRule(c echo.Context) error {
	acct, err := s.accountFromParam(c)
	if err != nil {
		return err
	}

	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MediaID == "" || req.DMMessage == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "mediaId and dmMessage are required")
	}
	switch req.TriggerKind {
	case rulestore.TriggerAlways:
	case rulestore.TriggerKeyword:
		if req.Keyword == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "keyword triggers require a keyword")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown trigger kind")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rule := &rulestore.AutomationRule{
		OwnerID:      acct.ID,
		MediaID:      req.MediaID,
		Active:       active,
		TriggerKind:  req.TriggerKind,
		Keyword:      req.Keyword,
		DMMessage:    req.DMMessage,
		ButtonTitle:  req.ButtonTitle,
		ButtonURL:    req.ButtonURL,
		CommentReply: req.CommentReply,
	}
	if err := s.store.CreateRule(c.Request().Context(), rule); err != nil {
		s.logger.Error("failed to create rule", "account", acct.PlatformID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, rule)
}

func ruleIDFromParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}
	return uint(id), nil
}

func (s *Server) handleSetRuleActive(active bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := ruleIDFromParam(c)
		if err != nil {
			return err
		}
		if err := s.store.SetRuleActive(c.Request().Context(), id, active); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "rule not found")
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "active": active})
	}
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	id, err := ruleIDFromParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRule(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
