package main

import (
	"github.com/ValentinKolb/dStream/cmd"
)

func main() {
	cmd.Execute()
}
