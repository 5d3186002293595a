package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

type config struct {
	port  int
	env   string
	store string
	seed  bool
	db    struct {
		uri  string
		name string
	}
	redis struct {
		addr string
		ttl  time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	limiter struct {
		enabled              bool
		maxRequestsPerSecond float64
		burst                int
	}
	cors struct {
		trustedOrigins []string
	}
	jwtSecret string
}

type application struct {
	config        config
	storage       store
	notifications *notificationCenter
	mailer        *mailer
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var cfg config
	flag.IntVar(&cfg.port, "port", 3000, "Server Port")
	flag.StringVar(&cfg.env, "env", "development", "Environment [development|production]")

	flag.StringVar(&cfg.store, "store", "mongo", "Backing store [mongo|memory]")
	flag.BoolVar(&cfg.seed, "seed", false, "Seed the memory store with demo users and tasks")
	flag.StringVar(&cfg.db.uri, "db-uri", os.Getenv("MONGODB_URI"), "MongoDB connection URI")
	flag.StringVar(&cfg.db.name, "db-name", "taskdeck", "MongoDB database name")

	flag.StringVar(&cfg.redis.addr, "redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the task list cache (empty disables caching)")
	var cacheTTL string
	flag.StringVar(&cacheTTL, "redis-ttl", "15s", "Task list cache TTL")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host (empty disables reminder mail)")
	flag.IntVar(&cfg.smtp.port, "smtp-port", smtpPortFromEnv(), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")

	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", false, "Enable per-IP rate limiting")
	flag.Float64Var(&cfg.limiter.maxRequestsPerSecond, "limiter-rps", 2, "Rate limiter max requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter burst")

	var trustedOrigins string
	flag.StringVar(&trustedOrigins, "cors-trusted-origins", os.Getenv("CORS_TRUSTED_ORIGINS"), "Trusted CORS origins (space separated)")

	flag.StringVar(&cfg.jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	flag.Parse()

	cfg.cors.trustedOrigins = strings.Fields(trustedOrigins)

	d, err := time.ParseDuration(cacheTTL)
	if err != nil {
		cfg.redis.ttl = 15 * time.Second
		log.Printf(`invalid value %s for flag "redis-ttl" defaulting to %s`, cacheTTL, cfg.redis.ttl)
	} else {
		cfg.redis.ttl = d
	}

	if cfg.jwtSecret == "" {
		secret := make([]byte, 32)
		_, err = rand.Read(secret[:])
		if err != nil {
			log.Fatal(err)
		}
		cfg.jwtSecret = string(secret)
	}

	storage, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.redis.addr})
		storage = newCachedStore(storage, newRedisTaskCache(rdb, cfg.redis.ttl))
		log.Println("task list caching enabled")
	}

	app := &application{
		config:        cfg,
		storage:       storage,
		notifications: newNotificationCenter(),
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("Starting %s server on port %d\n", cfg.env, cfg.port)
	err = srv.ListenAndServe()
	log.Fatal(err)
}

func openStore(cfg config) (store, error) {
	switch cfg.store {
	case "memory":
		s := newMemoryStore()
		if cfg.seed {
			if err := seedStore(s); err != nil {
				return nil, err
			}
			log.Println("seeded memory store with demo data")
		}
		return s, nil
	case "mongo":
		client, err := openMongo(cfg)
		if err != nil {
			return nil, err
		}
		log.Println("established a connection with database")
		return newMongoStore(client, cfg.db.name)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.store)
	}
}

func smtpPortFromEnv() int {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		return 25
	}
	return port
}
