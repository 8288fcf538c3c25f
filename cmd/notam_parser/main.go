// Command-line entry point for the NOTAM parser.
//
// Note about input formats
// ------------------------
// NOTAM bulletins arrive in many shapes: single messages, briefing
// documents with several NOTAMs separated by headers or blank lines, and
// feeds where each line is one raw message. The splitter autodetects the
// boundaries, so all commands accept free text and do their best with it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"notam_parser/internal/enrichment"
	"notam_parser/internal/notam"
	"notam_parser/internal/parser"
	"notam_parser/internal/splitter"
	"notam_parser/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "notam_parser - commands:")
	fmt.Fprintln(w, "  extract    - parse NOTAM text and output JSON")
	fmt.Fprintln(w, "  store      - parse NOTAM text and store in SQLite (optionally ClickHouse)")
	fmt.Fprintln(w, "  subscribe  - consume raw NOTAMs from NATS and store them")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  notam_parser extract [-input file.txt] [-output out.json] [-pretty] [-stats]")
	fmt.Fprintln(w, "  notam_parser store -db notams.db [-input file.txt] [-archive] [-airports] [-source NAME]")
	fmt.Fprintln(w, "  notam_parser subscribe -db notams.db [-nats nats://localhost:4222] [-subject notams.raw]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Input defaults to stdin; multi-NOTAM documents are split automatically.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "extract":
		runExtract(os.Args[2:])
	case "store":
		runStore(os.Args[2:])
	case "subscribe":
		runSubscribe(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// parseInput reads the whole input, splits it into NOTAM chunks, parses
// each one, and runs enrichment.
func parseInput(r io.Reader, source string, enricher *enrichment.Enricher) ([]*notam.Notam, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read input: %w", err)
	}

	chunks := splitter.Split(string(data))
	p := parser.New()

	var out []*notam.Notam
	for _, chunk := range chunks {
		n := p.Parse(chunk, source)
		if n == nil {
			continue
		}
		enricher.Enrich(n)
		out = append(out, n)
	}
	return out, len(chunks), nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	inPath := fs.String("input", "", "Input NOTAM text file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	source := fs.String("source", "cli", "Source label recorded on each NOTAM")
	_ = fs.Parse(args)

	in, err := openInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	notams, chunks, err := parseInput(in, *source, enrichment.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	enc, err := marshalJSON(notams, *pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = wout.Write(enc)
	if wout == os.Stdout {
		_, _ = wout.Write([]byte("\n"))
	}

	if *showStats {
		withQ := 0
		for _, n := range notams {
			if n.QCode != "" {
				withQ++
			}
		}
		fmt.Fprintf(os.Stderr, "stats: chunks=%d parsed=%d with_qline=%d\n", chunks, len(notams), withQ)
	}
}

func runStore(args []string) {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	dbPath := fs.String("db", envOrDefault("NOTAM_DB", "notams.db"), "SQLite database path")
	inPath := fs.String("input", "", "Input NOTAM text file (default: stdin)")
	source := fs.String("source", "cli", "Source label recorded on each NOTAM")
	archive := fs.Bool("archive", false, "Also append the batch to the ClickHouse archive")
	chHost := fs.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := fs.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chDB := fs.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "notams"), "ClickHouse database")
	chUser := fs.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := fs.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")
	airports := fs.Bool("airports", false, "Backfill missing coordinates from the PostgreSQL airport reference")
	pgHost := fs.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := fs.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgDB := fs.String("pg-database", envOrDefault("POSTGRES_DATABASE", "airports"), "PostgreSQL database")
	pgUser := fs.String("pg-user", envOrDefault("POSTGRES_USER", "notam"), "PostgreSQL user")
	pgPassword := fs.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "notam"), "PostgreSQL password")
	_ = fs.Parse(args)

	in, err := openInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	enricher := enrichment.New()
	if *airports {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		airportDB, err := storage.OpenAirportDB(ctx, storage.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			Database: *pgDB,
			User:     *pgUser,
			Password: *pgPassword,
		})
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open airport reference: %v\n", err)
			os.Exit(1)
		}
		defer airportDB.Close()
		enricher = enrichment.NewWithLocator(airportDB)
	}

	notams, _, err := parseInput(in, *source, enricher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	if len(notams) == 0 {
		fmt.Fprintln(os.Stderr, "No NOTAMs found in input")
		os.Exit(1)
	}

	store, err := storage.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InsertAll(notams); err != nil {
		fmt.Fprintf(os.Stderr, "Store error: %v\n", err)
		os.Exit(1)
	}
	log.Printf("stored %d NOTAMs in %s", len(notams), *dbPath)

	if *archive {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ch, err := storage.OpenArchive(ctx, storage.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDB,
			User:     *chUser,
			Password: *chPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
			os.Exit(1)
		}
		defer ch.Close()

		if err := ch.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Archive schema error: %v\n", err)
			os.Exit(1)
		}
		if err := ch.InsertBatch(ctx, notams); err != nil {
			fmt.Fprintf(os.Stderr, "Archive error: %v\n", err)
			os.Exit(1)
		}
		log.Printf("archived %d NOTAMs to ClickHouse", len(notams))
	}
}

func runSubscribe(args []string) {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	dbPath := fs.String("db", envOrDefault("NOTAM_DB", "notams.db"), "SQLite database path")
	natsURL := fs.String("nats", envOrDefault("NATS_URL", nats.DefaultURL), "NATS server URL")
	subject := fs.String("subject", envOrDefault("NATS_SUBJECT", "notams.raw"), "NATS subject carrying raw NOTAM text")
	source := fs.String("source", "nats", "Source label recorded on each NOTAM")
	_ = fs.Parse(args)

	store, err := storage.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	nc, err := nats.Connect(*natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to NATS: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	p := parser.New()
	enricher := enrichment.New()

	sub, err := nc.Subscribe(*subject, func(msg *nats.Msg) {
		text := string(msg.Data)
		for _, chunk := range splitter.Split(text) {
			n := p.Parse(chunk, *source)
			if n == nil {
				continue
			}
			enricher.Enrich(n)
			if _, err := store.Insert(n); err != nil {
				log.Printf("store %s: %v", n.ID, err)
				continue
			}
			log.Printf("stored %s %s %s", n.ID, n.Location, n.QCode)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to subscribe: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Printf("subscribed to %s on %s", *subject, *natsURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("shutting down")
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
