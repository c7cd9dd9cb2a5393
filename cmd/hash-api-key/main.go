// hash-api-key prints the bcrypt hash of an internal API key for the
// INTERNAL_API_KEY_HASH env var.
//
// Usage (from backend directory):
//   go run ./cmd/hash-api-key -key <plaintext>
package main

import (
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/billing_recon/utils"
)

func main() {
	key := flag.String("key", "", "plaintext api key to hash")
	flag.Parse()
	if *key == "" {
		fmt.Fprintln(os.Stderr, "usage: hash-api-key -key <plaintext>")
		os.Exit(2)
	}

	hash, err := utils.HashApiKey(*key)
	utils.ErrorPanic(err)
	fmt.Println(string(hash))
}
