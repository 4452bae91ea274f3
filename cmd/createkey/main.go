// Command createkey generates a random API key suitable for the API_KEY
// environment variable of the hub server.
package main

import (
	"crypto/rand"
	"fmt"
	"os"
)

const (
	charset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyLength = 32
)

func main() {
	apiKey, err := generateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("API key generated.")
	fmt.Println()
	fmt.Println("Export it for the server:")
	fmt.Println()
	fmt.Printf("  export API_KEY=%s\n", apiKey)
	fmt.Println()
	fmt.Println("Example request:")
	fmt.Println()
	fmt.Printf("  curl -H \"Authorization: Bearer %s\" \\\n", apiKey)
	fmt.Printf("    http://localhost:8080/v1/datasets/<dataset_id>/records\n")
}

// generateKey draws keyLength characters from charset using rejection
// sampling so every character is equally likely.
func generateKey() (string, error) {
	maxValidByte := byte((255 / len(charset)) * len(charset))

	key := make([]byte, keyLength)
	randomByte := make([]byte, 1)

	for i := range key {
		for {
			if _, err := rand.Read(randomByte); err != nil {
				return "", err
			}

			if randomByte[0] < maxValidByte {
				key[i] = charset[int(randomByte[0])%len(charset)]
				break
			}
		}
	}

	return string(key), nil
}
