package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/blob"
	"hybrid-rag/internal/chunker"
	"hybrid-rag/internal/config"
	"hybrid-rag/internal/db"
	"hybrid-rag/internal/embedding"
	"hybrid-rag/internal/helper"
	"hybrid-rag/internal/ingest"
	"hybrid-rag/internal/jobs"
	"hybrid-rag/internal/models"
	"hybrid-rag/internal/parser"
	"hybrid-rag/internal/reconcile"
	"hybrid-rag/internal/reconstruct"
	"hybrid-rag/internal/retrieval"
	"hybrid-rag/internal/vectorstore"
	vmemory "hybrid-rag/internal/vectorstore/memory"
	vqdrant "hybrid-rag/internal/vectorstore/qdrant"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// optional .env for local overrides
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	title := flag.String("title", "", "Document title (defaults to the file name)")
	tenant := flag.String("tenant", "", "Tenant id for the ingested document")
	template := flag.Bool("template", false, "Flag the document as a template-type record")
	query := flag.String("query", "", "Query to search for")
	tenants := flag.String("tenants", "", "Comma-separated tenant ids to restrict a search")
	list := flag.Bool("list", false, "List indexed documents")
	get := flag.String("get", "", "Document id to reconstruct")
	status := flag.String("status", "", "Document id to compute storage status for")
	remove := flag.String("delete", "", "Document id to delete from the index")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	a, cleanup, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error wiring application")
	}
	defer cleanup()

	switch {
	case *filePath != "":
		a.ingestFile(ctx, *filePath, *title, *tenant, *template)
	case *query != "":
		a.search(ctx, *query, *tenants)
	case *list:
		a.list(ctx)
	case *get != "":
		a.getContent(ctx, *get)
	case *status != "":
		a.status(ctx, *status)
	case *remove != "":
		a.delete(ctx, *remove)
	default:
		flag.Usage()
	}
}

type app struct {
	cfg           *config.Config
	pipeline      *ingest.Pipeline
	engine        *retrieval.Engine
	reconstructor *reconstruct.Reconstructor
	reconciler    *reconcile.Reconciler
	jobs          *jobs.Store
	blob          *blob.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	cleanup := func() {}

	var index vectorstore.Index
	switch cfg.Vector.Backend {
	case "memory":
		index = vmemory.New()
	case "qdrant":
		store, err := vqdrant.New(ctx, cfg.Vector.Addr, cfg.Vector.Collection, uint64(cfg.Vector.Dimension))
		if err != nil {
			return nil, cleanup, err
		}
		index = store
	default:
		return nil, cleanup, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}

	embedder, err := embedding.NewFromConfig(&cfg.Embedder)
	if err != nil {
		return nil, cleanup, err
	}

	var relational *db.Store
	if cfg.Database.DSN != "" {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		bundb := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bundb); err != nil {
			return nil, cleanup, err
		}
		relational = db.NewStore(bundb)
		cleanup = func() { relational.Close() }
	}

	var blobStore *blob.Store
	if cfg.Blob.Endpoint != "" {
		blobStore, err = blob.New(ctx, &cfg.Blob)
		if err != nil {
			return nil, cleanup, err
		}
	}

	jobStore := jobs.NewStore(cfg.Jobs.HistorySize)
	ch := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	// the reconciler tolerates nil backends by degrading their checks
	var relationalChecker reconcile.TemplateChecker
	if relational != nil {
		relationalChecker = relational
	}
	var blobChecker reconcile.BlobChecker
	if blobStore != nil {
		blobChecker = blobStore
	}

	return &app{
		cfg:           cfg,
		pipeline:      ingest.New(index, embedder, ch, jobStore),
		engine:        retrieval.New(index, embedder),
		reconstructor: reconstruct.New(index),
		reconciler:    reconcile.New(index, relationalChecker, blobChecker),
		jobs:          jobStore,
		blob:          blobStore,
	}, cleanup, nil
}

func (a *app) ingestFile(ctx context.Context, filePath, title, tenant string, template bool) {
	content, docType, err := parser.Parse(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}

	if title == "" {
		title = filepath.Base(filePath)
	}
	docID, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating document id")
	}

	doc := models.Document{
		ID:       docID,
		Title:    title,
		Content:  content,
		Type:     docType,
		TenantID: tenant,
		Metadata: map[string]any{"isTemplate": template},
	}

	if _, err := a.pipeline.Ingest(ctx, doc); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}

	// the blob store is populated here, outside the pipeline
	if a.blob != nil {
		f, err := os.Open(filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error reopening file for upload")
		}
		defer f.Close()
		stat, _ := f.Stat()
		ext := strings.ToLower(filepath.Ext(filePath))
		if err := a.blob.Put(ctx, docID, ext, f, stat.Size(), ""); err != nil {
			log.Error().Err(err).Msg("Error uploading original file")
		}
	}

	fmt.Printf("ingested document %s\n", docID)
	helper.PrettyPrint(a.jobs.Metrics())
}

func (a *app) search(ctx context.Context, query, tenants string) {
	var tenantIDs []string
	if tenants != "" {
		tenantIDs = strings.Split(tenants, ",")
	}

	matches, err := a.engine.Search(ctx, query, a.cfg.RAG.MaxResults, tenantIDs, a.cfg.RAG.SimilarityThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Error searching")
	}
	if len(matches) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, m := range matches {
		fmt.Printf("%d. [%.3f] %s\n", m.Rank, m.Similarity, m.Content)
	}
}

func (a *app) list(ctx context.Context) {
	summaries, err := a.reconstructor.ListSummaries(ctx, vectorstore.Filter{})
	if err != nil {
		log.Fatal().Err(err).Msg("Error listing documents")
	}
	for _, s := range summaries {
		fmt.Printf("%s  %-30s  %s  chunks=%d  %s\n", s.DocumentID, s.Title, s.Type, s.ChunkCount, s.CreatedAt.Format(time.RFC3339))
	}
}

func (a *app) getContent(ctx context.Context, documentID string) {
	content, err := a.reconstructor.GetFullContent(ctx, documentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reconstructing document")
	}
	fmt.Printf("# %s (%d chunks)\n\n%s\n", content.Title, content.ChunkCount, content.Content)
}

func (a *app) status(ctx context.Context, documentID string) {
	doc := models.Document{ID: documentID}

	// recover title/type/template flag from the index when available
	summaries, err := a.reconstructor.ListSummaries(ctx, vectorstore.Filter{DocumentID: documentID})
	if err == nil && len(summaries) > 0 {
		s := summaries[0]
		doc.Title = s.Title
		doc.Type = s.Type
		doc.TenantID = s.TenantID
		if b, ok := s.Metadata["isTemplate"].Bool(); ok {
			doc.Metadata = map[string]any{"isTemplate": b}
		}
	}

	helper.PrettyPrint(a.reconciler.ComputeStatus(ctx, doc))
}

func (a *app) delete(ctx context.Context, documentID string) {
	if err := a.pipeline.Delete(ctx, documentID); err != nil {
		log.Fatal().Err(err).Msg("Error deleting document")
	}
	fmt.Printf("deleted document %s\n", documentID)
}
