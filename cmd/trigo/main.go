package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/trigodb/trigo/internal/storage"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/executor"
	"github.com/trigodb/trigo/pkg/sparql/parser"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: trigo <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  demo         - Run a demo with sample data")
		fmt.Println("  query <q>    - Execute a SPARQL query")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo":
		runDemo()
	case "query":
		if len(os.Args) < 3 {
			fmt.Println("Usage: trigo query <sparql-query>")
			os.Exit(1)
		}
		runQuery(os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func openStore(path string) *quadstore.Store {
	backend, err := storage.NewBadgerStorage(path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	dict := rdf.NewDictionary()
	return quadstore.New(backend, dict)
}

func runDemo() {
	fmt.Println("=== Trigo RDF Quad Store Demo ===")
	fmt.Println()

	dbPath := "./trigo_data"
	fmt.Printf("Opening database at: %s\n", dbPath)
	qs := openStore(dbPath)
	defer qs.Close()

	dict := qs.Dict()
	fmt.Println("Quad store initialized")
	fmt.Println()

	fmt.Println("Inserting sample data...")

	alice := dict.NewIRI("http://example.org/alice")
	bob := dict.NewIRI("http://example.org/bob")
	carol := dict.NewIRI("http://example.org/carol")

	knows := dict.NewIRI("http://xmlns.com/foaf/0.1/knows")
	name := dict.NewIRI("http://xmlns.com/foaf/0.1/name")
	age := dict.NewIRI("http://xmlns.com/foaf/0.1/age")

	quads := []rdf.Quad{
		{Subject: alice, Predicate: name, Object: dict.NewLiteral("Alice")},
		{Subject: alice, Predicate: age, Object: dict.NewIntegerLiteral(30)},
		{Subject: alice, Predicate: knows, Object: bob},

		{Subject: bob, Predicate: name, Object: dict.NewLiteral("Bob")},
		{Subject: bob, Predicate: age, Object: dict.NewIntegerLiteral(25)},
		{Subject: bob, Predicate: knows, Object: carol},

		{Subject: carol, Predicate: name, Object: dict.NewLiteral("Carol")},
		{Subject: carol, Predicate: age, Object: dict.NewIntegerLiteral(28)},
	}

	for _, q := range quads {
		if err := qs.Insert(q); err != nil {
			log.Fatalf("Failed to insert quad: %v", err)
		}
		fmt.Printf("  ✓ %s\n", q)
	}

	fmt.Println("\nInserting data into named graphs...")
	graph1 := dict.NewIRI("http://example.org/graph1")
	graph2 := dict.NewIRI("http://example.org/graph2")

	namedQuads := []rdf.Quad{
		{Subject: alice, Predicate: name, Object: dict.NewLiteral("Alice in Graph1"), Graph: graph1},
		{Subject: bob, Predicate: name, Object: dict.NewLiteral("Bob in Graph1"), Graph: graph1},
		{Subject: alice, Predicate: name, Object: dict.NewLiteral("Alice in Graph2"), Graph: graph2},
		{Subject: carol, Predicate: name, Object: dict.NewLiteral("Carol in Graph2"), Graph: graph2},
	}

	for _, q := range namedQuads {
		if err := qs.Insert(q); err != nil {
			log.Fatalf("Failed to insert quad: %v", err)
		}
		fmt.Printf("  ✓ Quad in graph <%s>: %s %s %s\n", q.Graph, q.Subject, q.Predicate, q.Object)
	}

	count := qs.Count()
	fmt.Printf("\nTotal quads stored: %d\n", count)

	fmt.Println()
	fmt.Println("=== Querying Data ===")
	fmt.Println()

	sparqlQuery := `
		SELECT ?person ?name ?age
		WHERE {
			?person <http://xmlns.com/foaf/0.1/name> ?name .
			?person <http://xmlns.com/foaf/0.1/age> ?age .
		}
	`

	fmt.Printf("Query:\n%s\n", sparqlQuery)

	query, err := parser.NewParser(sparqlQuery, dict).Parse()
	if err != nil {
		log.Fatalf("Failed to parse query: %v", err)
	}
	fmt.Println("✓ Query parsed successfully")

	exec := executor.NewExecutor(qs)
	result, err := exec.Execute(query)
	if err != nil {
		log.Fatalf("Failed to execute query: %v", err)
	}
	fmt.Println("✓ Query executed successfully")
	fmt.Println()

	fmt.Println("Results:")
	printResult(result)

	fmt.Println("\n=== Demo Complete ===")
}

func runQuery(sparqlQuery string) {
	dbPath := "./trigo_data"
	qs := openStore(dbPath)
	defer qs.Close()

	query, err := parser.NewParser(sparqlQuery, qs.Dict()).Parse()
	if err != nil {
		log.Fatalf("Failed to parse query: %v", err)
	}

	exec := executor.NewExecutor(qs)
	result, err := exec.Execute(query)
	if err != nil {
		log.Fatalf("Failed to execute query: %v", err)
	}

	printResult(result)
}

func printResult(result executor.QueryResult) {
	switch r := result.(type) {
	case *executor.SelectResult:
		fmt.Print("| ")
		for _, v := range r.Variables {
			fmt.Printf("%-20s | ", v.Name)
		}
		fmt.Println()
		fmt.Println("|" + strings.Repeat("----------------------|", len(r.Variables)))

		for _, binding := range r.Bindings {
			fmt.Print("| ")
			for _, v := range r.Variables {
				if term, ok := binding.Get(v.Name); ok {
					fmt.Printf("%-20s | ", formatTerm(term))
				} else {
					fmt.Printf("%-20s | ", "")
				}
			}
			fmt.Println()
		}
		fmt.Printf("\nFound %d results\n", len(r.Bindings))

	case *executor.AskResult:
		fmt.Printf("Result: %t\n", r.Result)

	case *executor.ConstructResult:
		fmt.Printf("Constructed %d triples:\n", len(r.Triples))
		for _, t := range r.Triples {
			fmt.Printf("%s %s %s .\n", t.Subject, t.Predicate, t.Object)
		}
	}
}

func formatTerm(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.IRI:
		iri := *t.Value
		for i := len(iri) - 1; i >= 0; i-- {
			if iri[i] == '/' || iri[i] == '#' {
				return iri[i+1:]
			}
		}
		return iri
	case *rdf.Literal:
		return *t.Value
	default:
		return term.String()
	}
}
