package mockapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Error responses carry a "message" field, string or array, the way the real
// API's validation layer reports them. The CLI surfaces these verbatim.

// SignUpRequest represents a registration request
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ExpenseRequest represents the writable fields of an expense
type ExpenseRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Date        string  `json:"date" binding:"required,isodate"`
}

func (s *Server) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create account"})
		return
	}

	user := &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
			return
		}
		// SQLite reports unique violations as plain errors depending on the
		// driver; fall back to a lookup before declaring a server fault.
		var existing User
		if s.db.Where("email = ?", req.Email).First(&existing).Error == nil {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create account"})
		return
	}

	s.logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (s *Server) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := generateToken(s.jwtSecret, &user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	s.logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("User signed in")

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (s *Server) profile(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"sub":      user.ID,
		"name":     user.Name,
		"username": user.Email,
	})
}

func (s *Server) listExpenses(c *gin.Context) {
	user := currentUser(c)

	var expenses []Expense
	if err := s.db.Where("user_id = ?", user.ID).Order("date DESC, created_at DESC").Find(&expenses).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list expenses")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list expenses"})
		return
	}

	if expenses == nil {
		expenses = []Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) createExpense(c *gin.Context) {
	user := currentUser(c)

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	expense := &Expense{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
		UserID:      user.ID,
	}
	if err := s.db.Create(expense).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create expense")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save expense"})
		return
	}

	c.JSON(http.StatusCreated, expense)
}

func (s *Server) updateExpense(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var expense Expense
	if err := s.db.Where("id = ? AND user_id = ?", id, user.ID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find expense")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update expense"})
		return
	}

	expense.Description = req.Description
	expense.Amount = req.Amount
	expense.Date = req.Date
	if err := s.db.Save(&expense).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update expense")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update expense"})
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (s *Server) deleteExpense(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	result := s.db.Where("id = ? AND user_id = ?", id, user.ID).Delete(&Expense{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to delete expense")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete expense"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
