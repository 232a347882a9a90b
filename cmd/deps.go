package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/database"
	"github.com/jonesrussell/promocrawl/internal/embedding"
	"github.com/jonesrussell/promocrawl/internal/llm"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/normalize"
	"github.com/jonesrussell/promocrawl/internal/rag"
	"github.com/jonesrussell/promocrawl/internal/scraper"
	"github.com/jonesrussell/promocrawl/internal/scraper/strategy"
	"github.com/jonesrussell/promocrawl/internal/vector"
)

// CommandDeps holds the dependencies shared by all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Services bundles the wired application services.
type Services struct {
	DB    *sqlx.DB
	Repo  *database.PromotionRepository
	Crawl *scraper.Service
	Embed *embedding.Sync
	RAG   *rag.Service
}

// newCommandDeps loads configuration and creates the logger.
func newCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
		Encoding:    cfg.Logger.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Logger: log, Config: cfg}, nil
}

// buildServices wires the full service graph: Postgres store, browser
// scraper, vector index, embedding sync, and the RAG service. Callers
// own closing Services.DB.
func buildServices(deps *CommandDeps) (*Services, error) {
	db, err := database.NewPostgresConnection(deps.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := database.NewPromotionRepository(db)

	registry := strategy.NewRegistry(deps.Logger)
	sc := scraper.New(deps.Logger, deps.Config.Scraper, registry, scraper.ChromeSessionFactory)
	sync := normalize.NewSync(deps.Logger, repo, deps.Config.Scraper.Policy)
	crawl := scraper.NewService(deps.Logger, scraper.NewRunState(), sc, sync)

	index, err := vector.NewQdrantIndex(deps.Logger, deps.Config.Qdrant)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	provider, err := llm.NewOpenAIProvider(deps.Config.OpenAI)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}

	embed := embedding.NewSync(deps.Logger, repo, index, provider, deps.Config.Qdrant.Dimension)
	answerer := rag.NewService(deps.Logger, index, provider)

	return &Services{
		DB:    db,
		Repo:  repo,
		Crawl: crawl,
		Embed: embed,
		RAG:   answerer,
	}, nil
}
