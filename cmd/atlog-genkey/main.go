// Command atlog-genkey generates a secp256k1 key pair for use as the
// server-side decryption key of an ATRealTimeLog stream, and writes it to a
// dotenv-style file as PRI_KEY/PUB_KEY.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hlhr202/atlog-go/pkg/atlog"
)

func main() {
	out := flag.String("out", ".env", "path to write PRI_KEY/PUB_KEY to")
	force := flag.Bool("force", false, "overwrite out if it already exists")
	flag.Parse()

	if !*force {
		if _, err := os.Stat(*out); err == nil {
			log.Fatalf("%s already exists; pass -force to overwrite", *out)
		}
	}

	key, err := atlog.RandomKeyMaterial()
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}

	contents := fmt.Sprintf("PRI_KEY=%s\nPUB_KEY=%s\n", key.PrivateKey, key.PublicKey)
	if err := os.WriteFile(*out, []byte(contents), 0o600); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	fmt.Printf("wrote key pair to %s\n", *out)
	fmt.Printf("public key (share with writers): %s\n", key.PublicKey)
}
