package main

import (
	"github.com/TingjiaInFuture/pixrep/cmd"
)

func main() {
	cmd.Execute()
}
