// Package main provides a maintenance CLI for the companion database:
// consistent backups plus passphrase encryption for moving them off-machine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kmorwood/drawsim-companion/internal/config"
	"github.com/kmorwood/drawsim-companion/internal/storage"
)

var (
	dataDir    = flag.String("data-dir", "", "Data directory (default: ~/.drawsim-companion)")
	outDir     = flag.String("out", "", "Backup output directory (default: <data-dir>/backups)")
	passphrase = flag.String("passphrase", "", "Passphrase for encrypt/decrypt")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: drawsim-backup [flags] <command> [args]

Commands:
  backup                     Create a verified backup of the database
  encrypt <file>             Encrypt a backup file with the passphrase
  decrypt <file> <output>    Decrypt an encrypted backup

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	switch flag.Arg(0) {
	case "backup":
		runBackup()
	case "encrypt":
		if flag.NArg() != 2 {
			log.Fatal("encrypt requires a file argument")
		}
		runEncrypt(flag.Arg(1))
	case "decrypt":
		if flag.NArg() != 3 {
			log.Fatal("decrypt requires file and output arguments")
		}
		runDecrypt(flag.Arg(1), flag.Arg(2))
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}
}

func resolveDataDir() string {
	if *dataDir != "" {
		return *dataDir
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	dir, err := cfg.DataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	return dir
}

func runBackup() {
	dir := resolveDataDir()
	dbPath := filepath.Join(dir, "data.db")
	if _, err := os.Stat(dbPath); err != nil {
		log.Fatalf("Database not found at %s: %v", dbPath, err)
	}

	db, err := storage.Open(storage.DefaultConfig(dbPath))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	target := *outDir
	if target == "" {
		target = filepath.Join(dir, "backups")
	}

	path, err := storage.NewBackupManager(db).Backup(target)
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}
	fmt.Printf("Backup written to %s\n", path)
}

func runEncrypt(src string) {
	if *passphrase == "" {
		log.Fatal("encrypt requires -passphrase")
	}
	dst := src + ".enc"
	if err := storage.EncryptFile(src, dst, *passphrase); err != nil {
		log.Fatalf("Encryption failed: %v", err)
	}
	fmt.Printf("Encrypted backup written to %s\n", dst)
}

func runDecrypt(src, dst string) {
	if *passphrase == "" {
		log.Fatal("decrypt requires -passphrase")
	}
	if err := storage.DecryptFile(src, dst, *passphrase); err != nil {
		log.Fatalf("Decryption failed: %v", err)
	}
	fmt.Printf("Decrypted backup written to %s\n", dst)
}
