package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/present/rest/presenter"
	"github.com/totegamma/xcheck/internal/usecase"
)

// Realtime streams workflow events of the requested collections.
type Realtime interface {
	Realtime(ctx context.Context, request <-chan []string, response chan<- domain.WorkflowEvent)
}

type Options struct {
	ValidateRequests bool
}

type Handler struct {
	options     Options
	certificate *usecase.CertificateUsecase
	news        *usecase.NewsUsecase
	listing     *usecase.ListingUsecase
	verify      *usecase.VerifyUsecase
	audit       *usecase.AuditUsecase
	signal      Realtime
}

func NewHandler(
	options Options,
	certificate *usecase.CertificateUsecase,
	news *usecase.NewsUsecase,
	listing *usecase.ListingUsecase,
	verify *usecase.VerifyUsecase,
	audit *usecase.AuditUsecase,
	signal Realtime,
) *Handler {
	return &Handler{
		options:     options,
		certificate: certificate,
		news:        news,
		listing:     listing,
		verify:      verify,
		audit:       audit,
		signal:      signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.handleRoot)
	e.POST("/org/register", h.handleOrgRegister)
	e.POST("/journalist/register", h.handleJournalistRegister)
	e.POST("/news/submit-news", h.handleSubmitNews)
	e.POST("/news/update-news", h.handleUpdateNews)
	e.POST("/news/fact-check", h.handleFactCheck)
	e.POST("/verify/news-cid", h.handleVerifyNewsCID)
	e.POST("/verify/fact-cid", h.handleVerifyFactCID)
	e.GET("/organizations", h.handleOrganizations)
	e.GET("/journalists", h.handleJournalists)
	e.GET("/news", h.handleNews)
	if h.audit != nil {
		e.GET("/transactions/:id", h.handleTransactions)
	}
	if h.signal != nil {
		e.GET("/realtime", h.handleRealtime)
	}
}

func (h *Handler) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, "xcheck is running")
}

// readRecordBody reads the request body and reports its "_id". An "_id" that
// is present but not a non-empty string is a validation error.
func readRecordBody(c echo.Context) ([]byte, string, bool, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, "", false, err
	}

	var envelope struct {
		ID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", false, fmt.Errorf("malformed body: %w", err)
	}
	if envelope.ID == nil || string(envelope.ID) == "null" {
		return body, "", false, nil
	}

	var id string
	if err := json.Unmarshal(envelope.ID, &id); err != nil || id == "" {
		return nil, "", true, domain.NewError(domain.KindValidation, "_id", fmt.Errorf("invalid _id %s", envelope.ID))
	}
	return body, id, true, nil
}

// decodeEntity fills v from body and validates it when enabled.
func (h *Handler) decodeEntity(c echo.Context, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed body: %w", err)
	}
	if h.options.ValidateRequests {
		return c.Validate(v)
	}
	return nil
}

// rejectBody answers a body decodeEntity refused.
func rejectBody(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return presenter.BadRequest(c, err)
	}
	return presenter.InternalError(c, err)
}

// respond maps a workflow outcome to the response body under key.
func respond(c echo.Context, key string, out usecase.Outcome, err error) error {
	if err != nil {
		return presenter.InternalError(c, err)
	}
	if !out.Success {
		return presenter.Failed(c, out.Error)
	}
	return presenter.OK(c, echo.Map{key: out.Data})
}

func (h *Handler) handleOrgRegister(c echo.Context) error {
	ctx := c.Request().Context()

	body, id, hasID, err := readRecordBody(c)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	var org domain.Organization
	if !hasID {
		if err := h.decodeEntity(c, body, &org); err != nil {
			return rejectBody(c, err)
		}
	}

	out, err := h.certificate.RegisterOrganization(ctx, usecase.RegisterInput[domain.Organization]{ID: id, Entity: org})
	key := "data"
	if hasID {
		key = "orgDetails"
	}
	return respond(c, key, out, err)
}

func (h *Handler) handleJournalistRegister(c echo.Context) error {
	ctx := c.Request().Context()

	body, id, hasID, err := readRecordBody(c)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	var journalist domain.Journalist
	if !hasID {
		if err := h.decodeEntity(c, body, &journalist); err != nil {
			return rejectBody(c, err)
		}
	}

	out, err := h.certificate.RegisterJournalist(ctx, usecase.RegisterInput[domain.Journalist]{ID: id, Entity: journalist})
	return respond(c, "journalistDetails", out, err)
}

func (h *Handler) handleSubmitNews(c echo.Context) error {
	ctx := c.Request().Context()

	body, id, hasID, err := readRecordBody(c)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	var record domain.Fields
	if !hasID {
		if h.options.ValidateRequests {
			var news domain.News
			if err := h.decodeEntity(c, body, &news); err != nil {
				return rejectBody(c, err)
			}
		}
		if err := json.Unmarshal(body, &record); err != nil {
			return presenter.InternalError(c, err)
		}
	}

	out, err := h.news.Submit(ctx, usecase.SubmitInput{ID: id, Record: record})
	return respond(c, "newsDetails", out, err)
}

type reviseRequest struct {
	OldID any `json:"old_id"`
	NewID any `json:"new_id"`
}

func (r reviseRequest) input() usecase.ReviseInput {
	oldID, _ := r.OldID.(string)
	newID, _ := r.NewID.(string)
	return usecase.ReviseInput{OldID: oldID, NewID: newID}
}

const reviseResponseKey = "updatedMongo_WithThisLatestData_InOldMongoId"

func (h *Handler) handleUpdateNews(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviseRequest
	if err := c.Bind(&req); err != nil {
		return presenter.InternalError(c, err)
	}

	out, err := h.news.Revise(ctx, req.input())
	return respond(c, reviseResponseKey, out, err)
}

func (h *Handler) handleFactCheck(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviseRequest
	if err := c.Bind(&req); err != nil {
		return presenter.InternalError(c, err)
	}

	out, err := h.news.FactCheck(ctx, req.input())
	return respond(c, reviseResponseKey, out, err)
}

type verifyNewsRequest struct {
	CID         string `json:"cid"`
	UserAddress string `json:"userAddress"`
}

func (h *Handler) handleVerifyNewsCID(c echo.Context) error {
	ctx := c.Request().Context()

	var req verifyNewsRequest
	if err := c.Bind(&req); err != nil {
		return presenter.InternalError(c, err)
	}

	status, err := h.verify.NewsCID(ctx, req.CID, req.UserAddress)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"statusOfCid": status})
}

type verifyFactRequest struct {
	CID     string `json:"cid"`
	FactCID string `json:"factCid"`
}

func (h *Handler) handleVerifyFactCID(c echo.Context) error {
	ctx := c.Request().Context()

	var req verifyFactRequest
	if err := c.Bind(&req); err != nil {
		return presenter.InternalError(c, err)
	}

	status, err := h.verify.FactCID(ctx, req.CID, req.FactCID)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"statusOfCid": status})
}

func (h *Handler) handleOrganizations(c echo.Context) error {
	ctx := c.Request().Context()

	category := c.QueryParam("org_category")
	orgs, err := h.listing.Organizations(ctx, category)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	if category != "" {
		return presenter.OK(c, echo.Map{"organizations_by_org_category": orgs})
	}
	return presenter.OK(c, echo.Map{"organizations": orgs})
}

func (h *Handler) handleJournalists(c echo.Context) error {
	ctx := c.Request().Context()

	journalists, err := h.listing.Journalists(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"journalists": journalists})
}

func (h *Handler) handleNews(c echo.Context) error {
	ctx := c.Request().Context()

	language := c.QueryParam("news_language")
	news, err := h.listing.News(ctx, language)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	if language != "" {
		return presenter.OK(c, echo.Map{"news_by_Language": news})
	}
	return presenter.OK(c, echo.Map{"news": news})
}

func (h *Handler) handleTransactions(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.audit.Transactions(ctx, c.Param("id"))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"transactions": entries})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type        string   `json:"type"`
	Collections []string `json:"collections"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan domain.WorkflowEvent)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Collections:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Collections),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
