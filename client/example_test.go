package client_test

import (
	"context"
	"fmt"
	"log"

	"github.com/graphdash/sparqlkit/cache"
	"github.com/graphdash/sparqlkit/client"
	"github.com/graphdash/sparqlkit/instance"
	"github.com/graphdash/sparqlkit/storage"
)

// A registry over two public endpoints sharing one persisted cache.
func Example() {
	kv, err := storage.NewFile(".sparqlkit")
	if err != nil {
		log.Fatal(err)
	}
	store := cache.NewStore(cache.Config{Store: kv})

	registry := client.NewRegistry(client.Options{Cache: store}, map[string]instance.Instance{
		"wikidata": {
			Name:      "Wikidata",
			Endpoint:  "https://query.wikidata.org/sparql",
			RateLimit: instance.RateLimit{Concurrent: 3},
		},
		"dbpedia": {
			Name:     "DBpedia",
			Endpoint: "https://dbpedia.org/sparql",
		},
	})

	c, _ := registry.Client("wikidata")
	results, err := c.Query(context.Background(),
		`SELECT ?item WHERE { ?item wdt:P31 wd:Q146 } LIMIT 10`)
	if err != nil {
		log.Fatal(err)
	}
	for _, cat := range results.Column("item") {
		fmt.Println(cat)
	}
}

// QueryFresh refetches even when a cached result is live, for an
// explicit refresh button.
func ExampleClient_QueryFresh() {
	c := client.New(client.Config{
		Instance: instance.Instance{
			ID:       "wikidata",
			Endpoint: "https://query.wikidata.org/sparql",
		},
	})

	results, err := c.QueryFresh(context.Background(),
		`SELECT ?item WHERE { ?item wdt:P31 wd:Q5 } LIMIT 1`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results.Len())
}
