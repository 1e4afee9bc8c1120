package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"dolgovnik/config"
	"dolgovnik/database"
	"dolgovnik/services"

	"github.com/golang-jwt/jwt/v5"
)

// AuthController обрабатывает запросы аутентификации
type AuthController struct {
	userService *services.UserService
	config      *config.Config
}

// SignUpRequest представляет данные регистрации
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest представляет данные входа
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Claims представляет полезную нагрузку JWT токена
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResponse представляет ответ с токеном и данными пользователя
type AuthResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Currency string `json:"currency"`
	} `json:"user"`
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(db *database.Database, cfg *config.Config, email *services.EmailService) *AuthController {
	return &AuthController{
		userService: services.NewUserService(db.DB, email),
		config:      cfg,
	}
}

// SignUp обрабатывает регистрацию пользователя
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := c.userService.Register(services.RegisterDTO{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := c.generateToken(user.ID, user.Email)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	response := AuthResponse{Token: token}
	response.User.ID = user.ID
	response.User.Username = user.Username
	response.User.Email = user.Email
	response.User.Currency = user.Currency

	respondJSON(w, http.StatusCreated, response)
}

// SignIn обрабатывает вход пользователя
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := c.userService.Authenticate(req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := c.generateToken(user.ID, user.Email)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	response := AuthResponse{Token: token}
	response.User.ID = user.ID
	response.User.Username = user.Username
	response.User.Email = user.Email
	response.User.Currency = user.Currency

	respondJSON(w, http.StatusOK, response)
}

// RequestPasswordReset обрабатывает запрос на сброс пароля
func (c *AuthController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := c.userService.RequestPasswordReset(req.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	// Ответ одинаковый для любого адреса
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Если адрес зарегистрирован, письмо отправлено",
	})
}

// ResetPassword устанавливает новый пароль по токену
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := c.userService.ResetPassword(req.Token, req.Password); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Пароль обновлен",
	})
}

// GetJWTKey возвращает ключ для JWT
func (c *AuthController) GetJWTKey() string {
	return c.config.JWT.SecretKey
}

// generateToken создает JWT токен
func (c *AuthController) generateToken(userID uint, email string) (string, error) {
	expirationTime := time.Now().Add(time.Duration(c.config.JWT.ExpiresIn) * time.Hour)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.config.JWT.SecretKey))
}
