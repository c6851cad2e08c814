package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quickplay_service/internal/config"
	"quickplay_service/internal/games"
	"quickplay_service/internal/store"
	"quickplay_service/internal/wallet"
)

func main() {

	if err := godotenv.Load(); err != nil {
		fmt.Println("Error loading .env file", err)
	}

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalln(err)
	}

	repo, err := store.NewGormRepository(db)
	if err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()
	svc := wallet.New(ctx, repo,
		wallet.WithInitialBalance(cfg.InitialBalance),
		wallet.WithLogger(logrus.NewEntry(log).WithField("component", "wallet")),
	)

	feed := games.NewPriceFeed(cfg.PriceInterval, logrus.NewEntry(log).WithField("component", "pricefeed"))
	feed.Start(ctx)
	defer feed.Stop()

	rounds := games.NewRoundManager(svc, feed, cfg.PredictionWindow, logrus.NewEntry(log).WithField("component", "prediction"))

	r := gin.Default()

	r.POST("/connect", func(c *gin.Context) {
		var req struct {
			Address string `json:"address"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		account, err := svc.Connect(c.Request.Context(), req.Address)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, account)
	})

	r.POST("/connect/provider", func(c *gin.Context) {
		account, err := svc.ConnectWithProvider(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, account)
	})

	r.POST("/disconnect", func(c *gin.Context) {
		svc.Disconnect(c.Request.Context())
		c.JSON(http.StatusOK, svc.Session())
	})

	r.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Session())
	})

	r.GET("/balance", func(c *gin.Context) {
		balance, connected := svc.Balance()
		if !connected {
			c.JSON(statusFor(wallet.ErrNotConnected), gin.H{"error": wallet.ErrNotConnected.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balance})
	})

	r.GET("/profile", func(c *gin.Context) {
		profile, err := svc.Profile()
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	r.PUT("/profile", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.UpdateProfile(c.Request.Context(), req.Username, req.Password); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		profile, _ := svc.Profile()
		c.JSON(http.StatusOK, profile)
	})

	r.POST("/play/coinflip", func(c *gin.Context) {
		var req struct {
			Side  games.Side      `json:"side"`
			Stake decimal.Decimal `json:"stake"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := svc.Settle(c.Request.Context(), games.CoinFlip{Choice: req.Side}, req.Stake)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.POST("/play/dice", func(c *gin.Context) {
		var req struct {
			Guess int             `json:"guess"`
			Stake decimal.Decimal `json:"stake"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := svc.Settle(c.Request.Context(), games.DiceRoll{Guess: req.Guess}, req.Stake)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.POST("/play/prediction", func(c *gin.Context) {
		var req struct {
			Direction games.Direction `json:"direction"`
			Stake     decimal.Decimal `json:"stake"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := rounds.Play(c.Request.Context(), req.Direction, req.Stake)
		if err != nil && !result.Voided {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/history", func(c *gin.Context) {
		limit := 0
		if _, err := fmt.Sscanf(c.DefaultQuery("limit", "0"), "%d", &limit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		seq := svc.History(limit)
		if player := c.Query("player"); player != "" {
			seq = svc.HistoryFor(player, limit)
		}
		records := make([]wallet.GameRecord, 0)
		for record := range seq {
			records = append(records, record)
		}
		c.JSON(http.StatusOK, records)
	})

	r.GET("/leaderboard", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Leaderboard())
	})

	r.GET("/price", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"price": feed.Price()})
	})

	fmt.Println("Server started on", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, wallet.ErrProviderRejected):
		return http.StatusForbidden
	case errors.Is(err, wallet.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrProviderRequestPending):
		return http.StatusTooManyRequests
	case errors.Is(err, wallet.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
