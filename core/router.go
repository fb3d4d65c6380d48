package core

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RouterDeps carries the collaborators the router wires into handlers.
// Pool and Redis are only probed by the status endpoint and may be nil in
// tests.
type RouterDeps struct {
	Auth        AuthService
	Issuer      *TokenIssuer
	Users       UserRepository
	Roles       RoleRepository
	Preferences PreferenceRepository
	Recommender RecommendationClient
	Cache       *RecommendationCache
	Pool        *pgxpool.Pool
	Redis       *redis.Client
}

type preferenceRequest struct {
	Categories    []string `json:"categories"`
	Locations     []string `json:"locations"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	MaxDistanceKm *int     `json:"maxDistanceKm"`
	MaxBudget     *float64 `json:"maxBudget"`
}

type preferenceView struct {
	ID            int64     `json:"id"`
	Categories    []string  `json:"categories"`
	Locations     []string  `json:"locations"`
	StartDate     *string   `json:"startDate"`
	EndDate       *string   `json:"endDate"`
	MaxDistanceKm *int      `json:"maxDistanceKm"`
	MaxBudget     *float64  `json:"maxBudget"`
	CreateAt      time.Time `json:"createAt"`
	UpdateAt      time.Time `json:"updateAt"`
}

func viewOf(p Preference) preferenceView {
	return preferenceView{
		ID:            p.ID,
		Categories:    p.Categories,
		Locations:     p.Locations,
		StartDate:     dateString(p.StartDate),
		EndDate:       dateString(p.EndDate),
		MaxDistanceKm: p.MaxDistanceKm,
		MaxBudget:     p.MaxBudget,
		CreateAt:      p.CreatedAt,
		UpdateAt:      p.UpdatedAt,
	}
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, deps RouterDeps) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.Use(OriginMiddleware(cfg))
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("", RequireAuth(deps.Issuer))
	admin := r.Group("", RequireAuth(deps.Issuer), RequireRole(SystemAdminRole))

	r.POST("/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}

		res, err := deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "login failed")
			return
		}

		// Authentication failures are not HTTP errors here: the response is
		// 200 with a null token and a uniform reason.
		if res.Token == "" {
			c.JSON(http.StatusOK, gin.H{"email": nil, "token": nil, "message": res.Message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": res.Email, "token": res.Token})
	})

	admin.POST("/auth/register", func(c *gin.Context) {
		var req struct {
			Role      string `json:"role"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
			Password  string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}

		registered, err := deps.Auth.Register(c.Request.Context(), RegisterInput{
			Role:      req.Role,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Password:  req.Password,
		})
		if err != nil {
			respondRegisterError(c, err)
			return
		}
		if registered == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, registered)
	})

	// Public self-registration; the role is always USER regardless of input.
	r.POST("/users/register", func(c *gin.Context) {
		var req struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
			Password  string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}

		registered, err := deps.Auth.Register(c.Request.Context(), RegisterInput{
			Role:      DefaultUserRole,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Password:  req.Password,
		})
		if err != nil {
			respondRegisterError(c, err)
			return
		}
		if registered == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, registered)
	})

	admin.POST("/roles", func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
			return
		}

		role, err := deps.Roles.Create(c.Request.Context(), req.Name)
		if err != nil {
			if isUniqueViolation(err) {
				respondError(c, http.StatusConflict, "DUPLICATE_ROLE", "role already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create role")
			return
		}
		c.JSON(http.StatusCreated, role)
	})

	admin.GET("/roles", func(c *gin.Context) {
		roles, err := deps.Roles.List(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to list roles")
			return
		}
		if len(roles) == 0 {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "no roles defined")
			return
		}
		c.JSON(http.StatusOK, roles)
	})

	authed.GET("/users/me", func(c *gin.Context) {
		ident, _ := IdentityFrom(c)
		u, err := deps.Users.FindByEmail(c.Request.Context(), ident.Email)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "account no longer exists")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"userId":    u.ID,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"email":     u.Email,
		})
	})

	admin.GET("/users", func(c *gin.Context) {
		page := intQuery(c, "page", 1)
		perPage := intQuery(c, "per_page", 20)
		users, total, err := deps.Users.List(c.Request.Context(), page, perPage)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to list users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page, "per_page": perPage})
	})

	authed.POST("/preferences", func(c *gin.Context) {
		ident, _ := IdentityFrom(c)

		var req preferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		start, ok := parseDate(c, req.StartDate)
		if !ok {
			return
		}
		end, ok := parseDate(c, req.EndDate)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		u, err := deps.Users.FindByEmail(ctx, ident.Email)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "account no longer exists")
			return
		}

		pref := Preference{
			UserID:        u.ID,
			Categories:    req.Categories,
			Locations:     req.Locations,
			StartDate:     start,
			EndDate:       end,
			MaxDistanceKm: req.MaxDistanceKm,
			MaxBudget:     req.MaxBudget,
		}
		if err := deps.Preferences.Create(ctx, &pref); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to store preference")
			return
		}
		if deps.Cache != nil {
			deps.Cache.Invalidate(ctx, u.ID)
		}

		view := viewOf(pref)
		c.JSON(http.StatusOK, gin.H{
			"id":            view.ID,
			"categories":    view.Categories,
			"locations":     view.Locations,
			"startDate":     view.StartDate,
			"endDate":       view.EndDate,
			"maxDistanceKm": view.MaxDistanceKm,
			"maxBudget":     view.MaxBudget,
			"userId":        u.ID,
		})
	})

	authed.GET("/preferences/user/:id", func(c *gin.Context) {
		userID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		ctx := c.Request.Context()
		prefs, err := deps.Preferences.ListByUser(ctx, userID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load preferences")
			return
		}
		if len(prefs) == 0 {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "preference not found")
			return
		}

		// Recommendation lookup degrades to null rather than failing the read.
		var recs map[string]any
		cached := false
		if deps.Cache != nil {
			recs, cached = deps.Cache.Get(ctx, userID)
		}
		if !cached && deps.Recommender != nil {
			if fresh, err := deps.Recommender.Recommendations(ctx, prefs[0]); err == nil {
				recs = fresh
				if deps.Cache != nil {
					deps.Cache.Set(ctx, userID, fresh)
				}
			}
		}

		views := make([]preferenceView, 0, len(prefs))
		for _, p := range prefs {
			views = append(views, viewOf(p))
		}
		c.JSON(http.StatusOK, gin.H{"preferences": views, "aiRecommendations": recs})
	})

	admin.GET("/status", func(c *gin.Context) {
		st := CollectSystemStatus(c.Request.Context(), deps.Pool, deps.Redis, startedAt)
		c.JSON(http.StatusOK, st)
	})

	return r
}

func respondRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		respondError(c, http.StatusConflict, "DUPLICATE_EMAIL", "email is already registered")
	case errors.Is(err, ErrUnknownRole):
		respondError(c, http.StatusBadRequest, "UNKNOWN_ROLE", "role not found")
	case errors.Is(err, ErrInvalidCredentials):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "registration failed")
	}
}

// parseDate accepts an empty or YYYY-MM-DD date string, replying 400 itself
// on malformed input.
func parseDate(c *gin.Context, s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "dates must be formatted YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func intQuery(c *gin.Context, name string, defaultVal int) int {
	if v := c.Query(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return defaultVal
}
