package main

import (
	"github.com/gauravRathod674/OtakuRealm/cmd"
	"github.com/gauravRathod674/OtakuRealm/config"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
