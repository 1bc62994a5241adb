package main

import (
	"pagedb/dbcli"
)

func main() {
	dbcli.Execute()
}
