package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/stayline/hotel-admin-backend/internal/utils"
)

// Prints a fresh JWT_SECRET for the staff console.
func main() {
	size := flag.Int("bytes", 32, "secret length in random bytes")
	raw := flag.Bool("raw", false, "print only the secret")
	flag.Parse()

	secret, err := utils.GenerateSecret(*size)
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	if *raw {
		fmt.Println(secret)
		return
	}

	fmt.Printf("# %d-bit signing key for staff access tokens\n", *size*8)
	fmt.Printf("JWT_SECRET=%s\n", secret)
}
