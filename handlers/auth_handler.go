package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"campus-market/backend/database"
	"campus-market/backend/models"
	"campus-market/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt" // 用於密碼哈希
)

const requestTimeout = 5 * time.Second

// AuthHandler 處理註冊、登入與目前使用者
type AuthHandler struct {
	store     database.Store
	jwtSecret string
	ttl       time.Duration
	validate  *validator.Validate
	logger    logrus.FieldLogger
}

func NewAuthHandler(store database.Store, jwtSecret string, ttl time.Duration, validate *validator.Validate, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, ttl: ttl, validate: validate, logger: logger}
}

// Routes 掛載公開路由，me 需要 JWT
func (h *AuthHandler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.Handle("/me", auth(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
}

// Register 處理使用者註冊請求
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, h.validate, &req); err != nil {
		sendJSONError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.StudentID = strings.TrimSpace(req.StudentID)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// 先檢查 Email，再檢查學號
	existing, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Error checking existing email")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		sendJSONError(w, h.logger, "Email already registered", http.StatusBadRequest)
		return
	}
	existing, err = h.store.FindUserByStudentID(ctx, req.StudentID)
	if err != nil {
		h.logger.WithError(err).Error("Error checking existing student ID")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		sendJSONError(w, h.logger, "Student ID already registered", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Error hashing password")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		StudentID: req.StudentID,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Name:      strings.TrimSpace(req.Name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.InsertUser(ctx, user); err != nil {
		// 兩個請求同時註冊時由唯一索引擋下
		if errors.Is(err, database.ErrDuplicateKey) {
			sendJSONError(w, h.logger, "Email or student ID already registered", http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Error inserting user")
		sendJSONError(w, h.logger, "Failed to register user", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, h.jwtSecret, h.ttl)
	if err != nil {
		h.logger.WithError(err).Error("Error generating token")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("user_id", user.ID.Hex()).Info("User registered")
	writeJSON(w, h.logger, http.StatusCreated, models.AuthResponse{Message: "User registered successfully", Token: token, User: user})
}

// Login 處理使用者登入請求
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, h.validate, &req); err != nil {
		sendJSONError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.WithError(err).Error("Error finding user by email")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}
	// 帳號不存在與密碼錯誤回傳相同訊息
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		sendJSONError(w, h.logger, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, h.jwtSecret, h.ttl)
	if err != nil {
		h.logger.WithError(err).Error("Error generating token")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("user_id", user.ID.Hex()).Info("User logged in")
	writeJSON(w, h.logger, http.StatusOK, models.AuthResponse{Message: "Login successful", Token: token, User: user})
}

// Me 回傳目前使用者的公開資訊
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, h.logger, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Error loading current user")
		sendJSONError(w, h.logger, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		sendJSONError(w, h.logger, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]models.PublicProfile{"user": user.Profile()})
}
