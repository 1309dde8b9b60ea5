package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth"
	"github.com/MrEthical07/adminauth/clientinfo"
	"github.com/MrEthical07/adminauth/i18n"
	"github.com/MrEthical07/adminauth/menu"
	"github.com/MrEthical07/adminauth/middleware"
	"github.com/MrEthical07/adminauth/session"
)

const (
	roleAdmin   = "admin"
	roleDefault = "ROLE_DEFAULT"
)

type handlers struct {
	engine   Engine
	messages *i18n.Bundle
	menus    menu.Provider
	token    middleware.TokenConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// loginBody accepts both JSON and urlencoded forms.
type loginBody struct {
	Username string `json:"username" validate:"required,max=30"`
	Password string `json:"password" validate:"required,max=128"`
	Code     string `json:"code" validate:"max=16"`
	UUID     string `json:"uuid" validate:"max=64"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func (h *handlers) lang(r *http.Request) string {
	return h.messages.Match(r.Header.Get("Accept-Language"))
}

func (h *handlers) msg(r *http.Request, key string, args ...i18n.M) string {
	return h.messages.Message(h.lang(r), key, args...)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeLogin(r)
	if err == nil {
		err = h.validate.Struct(body)
	}
	if err != nil {
		writeJSON(w, http.StatusOK, failure(http.StatusInternalServerError,
			h.msg(r, "request.invalid", i18n.M{"detail": describeInvalid(err)})))
		return
	}

	ctx := adminauth.WithUserAgent(adminauth.WithClientIP(r.Context(), clientinfo.GetIP(r)), r.UserAgent())
	token, err := h.engine.Login(ctx, adminauth.LoginRequest{
		Username: strings.TrimSpace(body.Username),
		Password: body.Password,
		Code:     body.Code,
		UUID:     body.UUID,
	})
	if err != nil {
		var ae *adminauth.AuthenticationError
		if errors.As(err, &ae) || errors.Is(err, adminauth.ErrEngineNotReady) {
			h.logger.Warn("login failed", zap.String("username", body.Username), zap.Error(err))
		}
		key, args := adminauth.MessageOf(err)
		writeJSON(w, http.StatusOK, failure(http.StatusInternalServerError, h.msg(r, key, i18n.M(args))))
		return
	}

	writeJSON(w, http.StatusOK, success(h.msg(r, "operation.success")).With("token", token))
}

func decodeLogin(r *http.Request) (loginBody, error) {
	var body loginBody
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return body, errors.New("malformed JSON body")
		}
		return body, nil
	}
	if err := r.ParseForm(); err != nil {
		return body, errors.New("malformed form body")
	}
	body.Username = r.PostFormValue("username")
	body.Password = r.PostFormValue("password")
	body.Code = r.PostFormValue("code")
	body.UUID = r.PostFormValue("uuid")
	return body, nil
}

func describeInvalid(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
	}
	return strings.Join(fields, ", ")
}

func (h *handlers) captchaImage(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.IssueCaptcha(r.Context())
	if err != nil {
		h.logger.Error("issue captcha", zap.Error(err))
		writeJSON(w, http.StatusOK, failure(http.StatusInternalServerError, h.msg(r, "user.login.unavailable")))
		return
	}
	res := success(h.msg(r, "operation.success")).With("captchaEnabled", c.Enabled)
	if c.Enabled {
		res.With("uuid", c.UUID).With("img", c.Image)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if token := h.token.Token(r); token != "" {
		ctx := adminauth.WithUserAgent(adminauth.WithClientIP(r.Context(), clientinfo.GetIP(r)), r.UserAgent())
		if err := h.engine.Logout(ctx, token); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, success(h.msg(r, "user.logout.success")))
}

func (h *handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	rec, _ := middleware.SessionFromContext(r.Context())

	writeJSON(w, http.StatusOK, success(h.msg(r, "operation.success")).
		With("user", map[string]any{
			"userId":   rec.UserID,
			"userName": rec.Username,
			"nickName": rec.Nickname,
			"deptId":   rec.DeptID,
			"loginIp":  rec.IPAddress,
		}).
		With("roles", displayRoles(rec)).
		With("permissions", displayPermissions(rec)))
}

// displayRoles reports the role keys, "admin" alone for administrators and
// ROLE_DEFAULT when the user has no role.
func displayRoles(rec *session.Record) []string {
	if rec.HasRole(roleAdmin) {
		return []string{roleAdmin}
	}
	if len(rec.Roles) == 0 {
		return []string{roleDefault}
	}
	return rec.Roles
}

func displayPermissions(rec *session.Record) []string {
	if rec.HasRole(roleAdmin) {
		return []string{session.AllPermissions}
	}
	if rec.Permissions == nil {
		return []string{}
	}
	return rec.Permissions
}

func (h *handlers) getRouters(w http.ResponseWriter, r *http.Request) {
	rec, _ := middleware.SessionFromContext(r.Context())

	routers := []menu.Router{}
	if h.menus != nil {
		perms := displayPermissions(rec)
		got, err := h.menus.Routers(r.Context(), perms)
		if err != nil {
			h.logger.Error("load routers", zap.String("username", rec.Username), zap.Error(err))
			writeJSON(w, http.StatusOK, failure(http.StatusInternalServerError, h.msg(r, "operation.error")))
			return
		}
		if got != nil {
			routers = got
		}
	}
	writeJSON(w, http.StatusOK, success(h.msg(r, "operation.success")).With("data", routers))
}

func (h *handlers) unauthenticated(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, failure(http.StatusUnauthorized, h.msg(r, "user.not.authenticated")))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
