package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/handler"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
	"github.com/caliper-hq/caliper-api/internal/router"
	"github.com/caliper-hq/caliper-api/internal/service"
)

func setupPackApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := handlerTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	questionRepo := repository.NewQuestionRepository(db)
	packRepo := repository.NewPackRepository(db)
	packService := service.NewPackService(packRepo, questionRepo, validate, nil, logger)

	app := fiber.New()
	router.Register(app, testConfig(), router.Dependencies{
		PackHandler: handler.NewPackHandler(packService, logger),
	})

	return app, db
}

func TestPackHandlerCreate(t *testing.T) {
	app, db := setupPackApp(t)

	question := models.Question{Title: "Chart axes", Qtype: models.QuestionTypeTheory, Version: 1}
	require.NoError(t, db.Create(&question).Error)

	payload, err := json.Marshal(dto.PackCreateRequest{
		Name:  "Analyst Screen",
		Items: []dto.PackItemRequest{{QuestionID: question.ID}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/admin/packs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool             `json:"success"`
		Data    dto.PackResponse `json:"data"`
		Message string           `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "pack created", body.Message)
	require.Equal(t, 1, body.Data.Version)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, 180, body.Data.Items[0].TimerSeconds)
	require.Equal(t, "Chart axes", body.Data.Items[0].Question.Title)
}

func TestPackHandlerCreateUnknownQuestion(t *testing.T) {
	app, _ := setupPackApp(t)

	payload, err := json.Marshal(dto.PackCreateRequest{
		Name:  "Broken Pack",
		Items: []dto.PackItemRequest{{QuestionID: uuid.New()}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/admin/packs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "pack references an unknown question", body.Message)
}

func TestPackHandlerCreateWithoutItems(t *testing.T) {
	app, _ := setupPackApp(t)

	payload, err := json.Marshal(dto.PackCreateRequest{Name: "Empty Pack"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/admin/packs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "validation failed", body.Message)
}

func TestPackHandlerGetMissing(t *testing.T) {
	app, _ := setupPackApp(t)

	req := httptest.NewRequest("GET", "/api/admin/packs/424242", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "pack not found", body.Message)
}
