package routes

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pagedb/database"
)

var openDBs = map[string]*database.Database{}

func basePath(dbID string) string {
	return filepath.Join(".", "files", dbID)
}

func getDB(dbID string, createIfMissing bool) (*database.Database, string, error) {
	if db, ok := openDBs[dbID]; ok {
		return db, dbID, nil
	}

	db, err := database.LoadDatabase(basePath(dbID))
	if err != nil {
		if !createIfMissing {
			return nil, "", err
		}
		dbUUID, err := uuid.NewRandom()
		if err != nil {
			log.Fatalf("failed to generate uuid: %v", err)
		}
		dbSuffix := strings.Split(dbUUID.String(), "-")[0]
		dbID = fmt.Sprintf("db_%s", dbSuffix)
		db, err = database.NewDatabase(basePath(dbID), dbID)
		if err != nil {
			return nil, dbID, err
		}
	}
	openDBs[dbID] = db
	return db, dbID, nil
}

func SetupRoutes(router fiber.Router) {
	router.Get("/databases", func(c *fiber.Ctx) error {
		dbs, err := database.ListDatabases("./files")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"databases": dbs})
	})

	router.Get("/create-db", func(c *fiber.Ctx) error {
		_, dbID, err := getDB("", true)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "created", "dbID": dbID})
	})

	router.Get("/collections", func(c *fiber.Ctx) error {
		dbID := c.Query("dbID")
		if dbID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dbID required"})
		}
		db, _, err := getDB(dbID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		names, _ := db.GetAllCollections()
		return c.JSON(fiber.Map{"collections": names})
	})

	router.Post("/create-collection", func(c *fiber.Ctx) error {
		var body struct {
			DBID  string `json:"dbID"`
			Name  string `json:"name"`
			Order int    `json:"order"`
		}
		if err := c.BodyParser(&body); err != nil || body.DBID == "" || body.Name == "" || body.Order < 2 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dbID, name and order>=2 required"})
		}

		db, _, err := getDB(body.DBID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err := db.CreateCollection(body.Name, body.Order); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "collection created"})
	})

	router.Post("/insert", func(c *fiber.Ctx) error {
		var body struct {
			DBID       string `json:"dbID"`
			Collection string `json:"collection"`
			Key        string `json:"key"`
			Value      string `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}

		db, _, err := getDB(body.DBID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		coll, err := db.GetCollection(body.Collection)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err := coll.InsertKV(body.Key, body.Value); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "inserted"})
	})

	router.Get("/find", func(c *fiber.Ctx) error {
		dbID, colName, key := c.Query("dbID"), c.Query("collection"), c.Query("key")
		if dbID == "" || colName == "" || key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing query params"})
		}

		db, _, err := getDB(dbID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		coll, err := db.GetCollection(colName)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		val, found, err := coll.FindKey(key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}
		return c.JSON(fiber.Map{"value": val})
	})

	router.Get("/find-all", func(c *fiber.Ctx) error {
		dbID, colName := c.Query("dbID"), c.Query("collection")

		db, _, err := getDB(dbID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		coll, err := db.GetCollection(colName)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		pairs, err := coll.FindAllKV()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"value": pairs})
	})

	router.Post("/update", func(c *fiber.Ctx) error {
		var body struct {
			DBID       string `json:"dbID"`
			Collection string `json:"collection"`
			Key        string `json:"key"`
			Value      string `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
		db, _, err := getDB(body.DBID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		coll, err := db.GetCollection(body.Collection)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err := coll.UpdateKV(body.Key, body.Value); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "updated"})
	})

	router.Delete("/delete", func(c *fiber.Ctx) error {
		dbID, colName, key := c.Query("dbID"), c.Query("collection"), c.Query("key")
		if dbID == "" || colName == "" || key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing query params"})
		}

		db, _, err := getDB(dbID, false)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		coll, err := db.GetCollection(colName)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		deleted, err := coll.DeleteKey(key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !deleted {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})
}
