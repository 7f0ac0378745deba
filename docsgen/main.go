package main

import (
	"fmt"
	"os"

	"github.com/filecoin-project/go-statemachine/fsm"

	"github.com/portus-project/go-asset-vault/publishing"
	publishingimpl "github.com/portus-project/go-asset-vault/publishing/impl"
)

func publishStatusCmp(a, b fsm.StateKey) bool {
	aStatus := a.(publishing.PublishStatus)
	bStatus := b.(publishing.PublishStatus)
	return aStatus < bStatus
}

func main() {
	file, err := os.Create("./docs/publish.mmd")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	err = fsm.GenerateUML(file, fsm.MermaidUML, publishingimpl.PublishFSMParameterSpec, publishing.PublishStatuses, publishing.PublishEvents, []fsm.StateKey{publishing.PublishStatusEncoded}, false, publishStatusCmp)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	err = file.Close()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
