package dbcli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pagedb/btree"
	"pagedb/database"
	"pagedb/server"
)

// Root command for the CLI
var RootCmd = &cobra.Command{
	Use:   "pagedb",
	Short: "CLI for managing the database",
	Long:  "A Command Line Interface (CLI) for managing collections and data in the page-file database.",
}

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		os.Exit(1)
	}
}

func basePath(dbID string) string {
	return filepath.Join(".", "files", dbID)
}

// Command to create a new database
var createDBCmd = &cobra.Command{
	Use:   "create-db",
	Short: "Create a new database",
	Run: func(cmd *cobra.Command, args []string) {
		dbUUID, err := uuid.NewRandom()
		if err != nil {
			log.Fatalf("failed to generate uuid: %v", err)
		}
		dbSuffix := strings.Split(dbUUID.String(), "-")[0]
		dbID := fmt.Sprintf("db_%s", dbSuffix)
		fmt.Fprintln(cmd.OutOrStdout(), "Database ID:", dbID)

		db, err := database.NewDatabase(basePath(dbID), dbID)
		if err != nil {
			log.Fatalf("Error creating database: %v", err)
		}
		if err := db.Close(); err != nil {
			log.Fatalf("Error closing database: %v", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Database created successfully!")
	},
}

// Command to list all databases under ./files
var listDBsCmd = &cobra.Command{
	Use:   "list-dbs",
	Short: "List all databases",
	Run: func(cmd *cobra.Command, args []string) {
		dbIDs, err := database.ListDatabases(filepath.Join(".", "files"))
		if err != nil {
			log.Fatalf("Error listing databases: %v", err)
		}
		if len(dbIDs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No databases found.")
			return
		}
		for _, id := range dbIDs {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	},
}

// Command to create a collection in a database
var createCollectionCmd = &cobra.Command{
	Use:   "create-collection [dbID] [name] [order]",
	Short: "Create a new collection in the specified database",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		dbID := args[0]
		name := args[1]
		orderStr := args[2]

		order, err := strconv.Atoi(orderStr)
		if err != nil || order < 2 || order > btree.MaxB() {
			log.Fatalf("Invalid order value '%s'. Order must be an integer between 2 and %d.", orderStr, btree.MaxB())
		}

		db, err := database.LoadDatabase(basePath(dbID))
		if err != nil {
			log.Fatalf("Error loading database: %v", err)
		}
		defer db.Close()

		if err := db.CreateCollection(name, order); err != nil {
			log.Fatalf("Error creating collection: %v", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Collection '%s' created successfully in database '%s'.\n", name, dbID)
	},
}

func openCollection(dbID, collName string) (*database.Database, *database.Collection) {
	db, err := database.LoadDatabase(basePath(dbID))
	if err != nil {
		log.Fatalf("Error loading database '%s': %v", dbID, err)
	}
	coll, err := db.GetCollection(collName)
	if err != nil {
		log.Fatalf("Error getting collection '%s': %v", collName, err)
	}
	return db, coll
}

// Command to insert a key-value pair into a collection
var insertCmd = &cobra.Command{
	Use:   "insert [dbID] [collection] [key] [value]",
	Short: "Insert a key-value pair into a collection in the specified database",
	Long:  "This command inserts a key-value pair into the specified collection within the given database. Inserting an existing key overwrites its value.",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		dbID, collName, key, value := args[0], args[1], args[2], args[3]

		db, coll := openCollection(dbID, collName)
		defer db.Close()

		if err := coll.InsertKV(key, value); err != nil {
			log.Fatalf("Error inserting: %v", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Inserted key '%s' with value '%s' into collection '%s' in database '%s'.\n", key, value, collName, dbID)
	},
}

// Command to find a key in a collection
var findKeyCmd = &cobra.Command{
	Use:   "find [dbID] [collection] [key]",
	Short: "Find a key in a collection",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		dbID, collName, key := args[0], args[1], args[2]

		db, coll := openCollection(dbID, collName)
		defer db.Close()

		value, found, err := coll.FindKey(key)
		if err != nil {
			log.Fatalf("Error finding key: %v", err)
		}
		if found {
			fmt.Fprintf(cmd.OutOrStdout(), "Found key: %s => %s (in collection: %s)\n", key, value, collName)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Key not found: %s (in collection: %s)\n", key, collName)
		}
	},
}

// Command to update a key-value pair in a collection
var updateCmd = &cobra.Command{
	Use:   "update [dbID] [collection] [key] [new_value]",
	Short: "Update the value of an existing key in a collection",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		dbID, collName, key, newValue := args[0], args[1], args[2], args[3]

		db, coll := openCollection(dbID, collName)
		defer db.Close()

		if err := coll.UpdateKV(key, newValue); err != nil {
			log.Fatalf("Error updating key: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated key: %s => %s (in collection: %s)\n", key, newValue, collName)
	},
}

// Command to delete a key from a collection
var deleteCmd = &cobra.Command{
	Use:   "delete [dbID] [collection] [key]",
	Short: "Delete a key from a collection",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		dbID, collName, key := args[0], args[1], args[2]

		db, coll := openCollection(dbID, collName)
		defer db.Close()

		deleted, err := coll.DeleteKey(key)
		if err != nil {
			log.Fatalf("Error deleting key: %v", err)
		}
		if deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted key: %s (in collection: %s)\n", key, collName)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Key not found for deletion: %s (in collection: %s)\n", key, collName)
		}
	},
}

// Command to list every key-value pair in a collection, in key order
var scanCmd = &cobra.Command{
	Use:   "scan [dbID] [collection]",
	Short: "List all key-value pairs in a collection in ascending key order",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dbID, collName := args[0], args[1]

		db, coll := openCollection(dbID, collName)
		defer db.Close()

		pairs, err := coll.FindAllKV()
		if err != nil {
			log.Fatalf("Error scanning collection: %v", err)
		}
		for _, line := range formatPairs(pairs) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d pair(s) in collection '%s'.\n", len(pairs), collName)
	},
}

func formatPairs(pairs []btree.KeyValue) []string {
	lines := make([]string, len(pairs))
	for i, pair := range pairs {
		lines[i] = fmt.Sprintf("%s => %s", pair.Key, pair.Value)
	}
	return lines
}

var serverPort string

// Command to start the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the database server",
	Long:  "Starts the database HTTP API backed by the same page files the CLI uses.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Server(serverPort)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serverPort, "port", "p", ":3000", "address for the HTTP API to listen on")

	RootCmd.AddCommand(createDBCmd)
	RootCmd.AddCommand(listDBsCmd)
	RootCmd.AddCommand(createCollectionCmd)
	RootCmd.AddCommand(insertCmd)
	RootCmd.AddCommand(findKeyCmd)
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(serveCmd)
}
