package version

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gauravRathod674/OtakuRealm/color"
	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/icon"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/style"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/spf13/viper"
)

// Notify writes a notice to w when a newer release than the running one exists.
func Notify(ctx context.Context, client *http.Client, w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx, client)
	erase()
	if err != nil {
		log.Debugf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	_, _ = fmt.Fprintf(w, `
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/gauravRathod674/OtakuRealm/releases/tag/v"+latest),
	)
}
