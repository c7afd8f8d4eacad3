package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/api/server"
	"github.com/Leopold1975/awr_control/internal/awr/app"
	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/services/authservice"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/stretchr/testify/suite"
)

const addr = "127.0.0.1:18089"

type AppSuite struct {
	suite.Suite
	cancel context.CancelFunc
	done   chan struct{}
	client *http.Client
}

func (as *AppSuite) SetupSuite() {
	cfg := config.Config{ //nolint:exhaustruct
		Server:  config.Server{Addr: addr, ReadTimeout: time.Second * 5, WriteTimeout: time.Second * 5},
		Logger:  config.Logger{Level: "error"},
		Storage: config.Storage{Backend: config.BackendMemory},
		Auth:    config.Auth{TTL: time.Hour, Secret: "e2e-secret"},
	}

	ctx, cancel := context.WithCancel(context.Background())

	a, err := app.New(ctx, cfg)
	if err != nil {
		cancel()
		as.T().Fatalf("cannot get app error: %v", err)
	}

	as.cancel = cancel
	as.done = make(chan struct{})
	as.client = &http.Client{Timeout: time.Second * 5}

	go func() {
		a.Run(ctx)
		close(as.done)
	}()

	as.Require().Eventually(func() bool {
		resp, err := as.client.Get("http://" + addr + server.BaseURL + "/tasks") //nolint:noctx
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusUnauthorized
	}, time.Second*3, time.Millisecond*50)
}

func (as *AppSuite) TearDownSuite() {
	as.cancel()

	select {
	case <-as.done:
	case <-time.After(time.Second * 10):
		as.T().Fatal("app did not stop")
	}
}

func (as *AppSuite) call(ctx context.Context, method, path, token string, body any, out any) int {
	var r io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		as.Require().NoError(err)

		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+addr+server.BaseURL+path, r)
	as.Require().NoError(err)

	if token != "" {
		req.Header.Set("token", token)
	}

	resp, err := as.client.Do(req)
	as.Require().NoError(err, "expected %v	actual %v", nil, err)

	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		as.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func (as *AppSuite) login(ctx context.Context, id int64, password string) string {
	var resp authservice.LoginResponse

	code := as.call(ctx, http.MethodPost, "/auth/login", "",
		server.LoginRequest{TelegramID: id, Password: password}, &resp)
	as.Require().Equal(http.StatusOK, code)

	return resp.Token
}

func (as *AppSuite) TestWorkday() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// Админ и бригада проходят аутентификацию
	adminToken := as.login(ctx, 111, "adminpass")
	crewToken := as.login(ctx, 222, "brig1pass")
	as.Require().NotEqual(adminToken, crewToken)

	// Админ ставит задачу первой бригаде
	brigade := 1

	var task models.Task

	code := as.call(ctx, http.MethodPost, "/tasks", adminToken, models.NewTask{
		Address:     "ул. Мира, 7",
		Description: "Сварка ВОК",
		BrigadeID:   &brigade,
	}, &task)
	as.Require().Equal(http.StatusCreated, code)

	// Бригада видит задачу в своём списке
	var tasks []models.Task

	code = as.call(ctx, http.MethodGet, "/tasks?brigade_id=1&address=%D0%9C%D0%B8%D1%80%D0%B0", crewToken, nil, &tasks)
	as.Require().Equal(http.StatusOK, code)
	as.Require().Len(tasks, 1)
	as.Require().Equal(task.ID, tasks[0].ID)

	// Бригада берёт задачу в работу, сдаёт отчёт и закрывает
	path := "/tasks/" + strconv.Itoa(task.ID)

	for _, st := range []string{"in_progress", "done"} {
		code = as.call(ctx, http.MethodPatch, path, crewToken, map[string]any{"status": st}, &task)
		as.Require().Equal(http.StatusOK, code)
		as.Require().Equal(models.Status(st), task.Status)
	}

	code = as.call(ctx, http.MethodPost, path+"/report", crewToken, server.ReportRequest{
		Part:    models.ReportPartMaterials,
		Payload: map[string]any{"gofra": 12},
	}, nil)
	as.Require().Equal(http.StatusCreated, code)

	// Бригада не может вернуть выполненную задачу в работу, админ может
	code = as.call(ctx, http.MethodPatch, path, crewToken, map[string]any{"status": "in_progress"}, nil)
	as.Require().Equal(http.StatusForbidden, code)

	code = as.call(ctx, http.MethodPatch, path, adminToken, map[string]any{"status": "in_progress"}, &task)
	as.Require().Equal(http.StatusOK, code)
	as.Require().Equal(models.StatusInProgress, task.Status)

	// Кладовщик выдаёт бригаде материал
	storeToken := as.login(ctx, 333, "kladpass")

	var m models.Material

	code = as.call(ctx, http.MethodPost, "/inventory/adjust", storeToken,
		server.AdjustRequest{MaterialID: "gofra", Delta: 12, BrigadeID: &brigade}, &m)
	as.Require().Equal(http.StatusOK, code)
	as.Require().InDelta(88, m.Total, 0.0001)

	var inv models.Inventory

	code = as.call(ctx, http.MethodGet, "/inventory", crewToken, nil, &inv)
	as.Require().Equal(http.StatusOK, code)
	as.Require().Len(inv.Tools, 2)

	// Админ удаляет задачу
	code = as.call(ctx, http.MethodDelete, path, adminToken, nil, nil)
	as.Require().Equal(http.StatusNoContent, code)

	code = as.call(ctx, http.MethodGet, path, adminToken, nil, nil)
	as.Require().Equal(http.StatusNotFound, code)
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}
