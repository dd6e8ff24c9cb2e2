package pkg

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arangodb/go-driver"
	"github.com/arangodb/go-driver/http"
	"github.com/fatih/structs"
	"github.com/rs/zerolog"

	"golang.org/x/net/context"
)

const (
	runsCollection        = "Runs"
	comparisonsCollection = "Comparisons"
	edgesCollection       = "RunsEdges"
)

// ArangoSettings are the connection parameters of the snapshot store. The certificate is a
// base64 encoded PEM CA bundle.
type ArangoSettings struct {
	Endpoint    string
	Username    string
	Password    string
	Certificate string
	Database    string
}

func (s ArangoSettings) Enabled() bool {
	return s.Endpoint != ""
}

func (s ArangoSettings) Validate() error {
	if s.Endpoint == "" || s.Username == "" || s.Password == "" || s.Certificate == "" || s.Database == "" {
		return errors.New("ARANGO_ENDPOINT, ARANGO_USER_NAME, ARANGO_PASS, ARANGO_CERTIFICATE AND ARANGO_DATABASE must be provided")
	}
	return nil
}

// SnapshotStore persists the outcome of a run.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, logger *zerolog.Logger, runKey string, summary DiscrepancySummary, observations []CountryObservation) error
}

type ArangoDB struct {
	db driver.Database
}

type RunEdge struct {
	From       string `json:"_from"`
	To         string `json:"_to"`
	Collection string `json:"collection"`
}

func ConnectToArango(settings ArangoSettings) (*ArangoDB, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caCertificate, err := base64.StdEncoding.DecodeString(settings.Certificate)
	if err != nil {
		return nil, fmt.Errorf("failed decoding certificate: %w", err)
	}

	tlsConfig := &tls.Config{}
	certpool := x509.NewCertPool()
	if success := certpool.AppendCertsFromPEM(caCertificate); !success {
		return nil, errors.New("invalid certificate")
	}
	tlsConfig.RootCAs = certpool

	conn, err := http.NewConnection(http.ConnectionConfig{
		Endpoints: []string{settings.Endpoint},
		TLSConfig: tlsConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating HTTP connection: %w", err)
	}

	c, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(settings.Username, settings.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating driver connection: %w", err)
	}

	db, err := c.Database(ctx, settings.Database)
	if err != nil {
		return nil, fmt.Errorf("failed getting database %q: %w", settings.Database, err)
	}

	return &ArangoDB{db}, nil
}

// RunDocument flattens a summary into the document stored for a run.
func RunDocument(runKey string, summary DiscrepancySummary) map[string]interface{} {
	node := structs.Map(summary)
	node["_key"] = runKey
	node["date"] = summary.Date.Format(time.RFC3339)
	node["createdAt"] = summary.Date.Unix()
	node["collection"] = runsCollection
	return node
}

// ComparisonDocuments builds one document per country keyed by "<run>-<ISO3>".
func ComparisonDocuments(runKey string, observations []CountryObservation) []interface{} {
	var nodes []interface{}
	for country, rows := range GroupByKey(observations) {
		for i, obs := range rows {
			node := structs.Map(obs)
			key := fmt.Sprintf("%s-%s", runKey, country)
			if i > 0 {
				key = fmt.Sprintf("%s-%d", key, i)
			}
			node["_key"] = key
			node["run"] = runKey
			node["collection"] = comparisonsCollection
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (graph *ArangoDB) SaveSnapshot(
	ctx context.Context,
	logger *zerolog.Logger,
	runKey string,
	summary DiscrepancySummary,
	observations []CountryObservation,
) error {
	runs, err := graph.db.Collection(ctx, runsCollection)
	if err != nil {
		logger.Err(err).Msg("An error occurred while trying to use Runs collection")
		return fmt.Errorf("failed getting %q collection: %w", runsCollection, err)
	}
	if _, err := runs.CreateDocument(ctx, RunDocument(runKey, summary)); err != nil {
		return fmt.Errorf("failed creating run document: %w", err)
	}

	comparisons, err := graph.db.Collection(ctx, comparisonsCollection)
	if err != nil {
		logger.Err(err).Msg("An error occurred while trying to use Comparisons collection")
		return fmt.Errorf("failed getting %q collection: %w", comparisonsCollection, err)
	}
	metas, _, err := comparisons.CreateDocuments(ctx, ComparisonDocuments(runKey, observations))
	if err != nil {
		logger.Err(err).Int("comparisons", len(metas)).Msg("An error occurred while trying to save in collection")
		return fmt.Errorf("failed creating comparison documents: %w", err)
	}

	var ids []string
	for _, meta := range metas {
		ids = append(ids, meta.ID.String())
	}
	return graph.createEdgeBetweenRunAndNodes(ctx, logger, runKey, ids)
}

func (graph *ArangoDB) createEdgeBetweenRunAndNodes(
	ctx context.Context,
	logger *zerolog.Logger,
	runKey string,
	ids []string,
) error {
	ctx = driver.WithQueryCount(ctx)

	from := runKey
	if !strings.HasPrefix(from, runsCollection+"/") {
		from = fmt.Sprintf("%s/%s", runsCollection, runKey)
	}

	var edges []RunEdge
	for _, id := range ids {
		edges = append(edges, RunEdge{
			From:       from,
			To:         id,
			Collection: edgesCollection,
		})
	}

	col, err := graph.db.Collection(ctx, edgesCollection)
	if err != nil {
		logger.Err(err).Msg("An error occurred while trying to use RunsEdges collection")
		return err
	}

	stats, err := col.ImportDocuments(ctx, edges, nil)
	if err != nil {
		logger.Err(err).Msg("An error occurred while trying to save edges")
		return err
	}

	logger.Info().Int("expected", len(edges)).Int64("actual", stats.Created).
		Int64("internal_errors", stats.Errors).Msg("Saved edges successfully")
	return nil
}
