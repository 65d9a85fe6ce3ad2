package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/degixdaw/filebrowser/shared/crypto"
)

func main() {
	check := flag.String("check", "", "verify an existing base64 key instead of generating one")
	flag.Parse()

	if *check != "" {
		if _, err := crypto.NewVaultFromBase64(*check); err != nil {
			log.Fatalf("Key rejected: %v", err)
		}
		fmt.Println("Key is valid.")
		return
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate credentials key: %v", err)
	}

	fmt.Println("Saved-credentials key (AES-256, base64):")
	fmt.Println(key)
	fmt.Println()
	fmt.Println("Add this to config/private.yaml to replace the machine-derived key:")
	fmt.Printf("credentials_key: \"%s\"\n", key)
	fmt.Println()
	fmt.Println("Changing or removing the key makes an existing credentials file unreadable;")
	fmt.Println("it is discarded on the next start and you will need to sign in again.")
}
