package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	helper "dutyreport_backend/internals/helpers"

	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

func setupMockApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, *service.ChallengeStore) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	challenges := service.NewChallengeStore(time.Minute)
	ctrl := NewDutyReportController(db, challenges)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return helper.JsonError(c, fe.Code, fe.Message)
			}
			return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
		},
	})
	api := app.Group("/api/duty-reports")
	api.Get("/teachers", ctrl.Teachers)
	api.Get("/:id", ctrl.GetByID)
	api.Post("/:id/delete-challenge", ctrl.CreateDeleteChallenge)
	api.Delete("/:id/delete-challenge", ctrl.CancelDeleteChallenge)
	api.Delete("/:id", ctrl.Delete)

	return app, mock, challenges
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	app, mock, _ := setupMockApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/duty-reports/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	app, mock, _ := setupMockApp(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "duty_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/duty-reports/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeachers(t *testing.T) {
	app, mock, _ := setupMockApp(t)

	mock.ExpectQuery(`SELECT DISTINCT .*teacher_name.* FROM "duty_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_name"}).
			AddRow("ครูหนึ่ง").
			AddRow("ครูสอง"))

	req := httptest.NewRequest("GET", "/api/duty-reports/teachers", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"ครูหนึ่ง", "ครูสอง"}, body.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDeleteChallengeIssuesCode(t *testing.T) {
	app, mock, challenges := setupMockApp(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "duty_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_name"}).
			AddRow(id.String(), "ครูเวร"))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/duty-reports/"+id.String()+"/delete-challenge", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			ChallengeCode string `json:"challenge_code"`
			ExpiresIn     int    `json:"expires_in_seconds"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data.ChallengeCode, 6)
	assert.Equal(t, 60, body.Data.ExpiresIn)
	assert.Equal(t, 1, challenges.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithWrongCodeRegenerates(t *testing.T) {
	app, mock, challenges := setupMockApp(t)
	id := uuid.New()
	challenges.Issue(id)

	payload := bytes.NewBufferString(`{"challenge_code":"wrong!"}`)
	req := httptest.NewRequest("DELETE", "/api/duty-reports/"+id.String(), payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct {
		Errors struct {
			ChallengeCode string `json:"challenge_code"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Errors.ChallengeCode, 6, "a fresh code rides back on the error")

	// no SQL ran: the report is untouched
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, challenges.Pending())
}

func TestDeleteWithMatchingCode(t *testing.T) {
	app, mock, challenges := setupMockApp(t)
	id := uuid.New()
	code := challenges.Issue(id)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "student_data"`).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM "health_records"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "duty_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payload := bytes.NewBufferString(fmt.Sprintf(`{"challenge_code":%q}`, code))
	req := httptest.NewRequest("DELETE", "/api/duty-reports/"+id.String(), payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, challenges.Pending(), "a matched code is consumed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingReportAfterMatch(t *testing.T) {
	app, mock, challenges := setupMockApp(t)
	id := uuid.New()
	code := challenges.Issue(id)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "student_data"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "health_records"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "duty_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	payload := bytes.NewBufferString(fmt.Sprintf(`{"challenge_code":%q}`, code))
	req := httptest.NewRequest("DELETE", "/api/duty-reports/"+id.String(), payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelDeleteChallenge(t *testing.T) {
	app, mock, challenges := setupMockApp(t)
	id := uuid.New()
	challenges.Issue(id)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/duty-reports/"+id.String()+"/delete-challenge", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, challenges.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}
