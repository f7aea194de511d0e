package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/inconshreveable/log15"
	"github.com/urfave/cli"

	"github.com/AnatoleLucet/signet/store"
)

func StorePut(ctx context.Context, c *cli.Context, s store.Store, log log15.Logger, out io.Writer) error {
	if c.NArg() != 2 {
		return Error.NewWith("store put requires a name and a program file", SetExitCode(ExitBadArgs))
	}
	name, path := c.Args().Get(0), c.Args().Get(1)

	rec, err := store.Import(ctx, s, name, path)
	if err != nil {
		return Error.Wrap(err, SetExitCode(ExitUser))
	}

	log.Info("model stored", "name", rec.Name, "revision", rec.Revision, "encoding", rec.Encoding)
	fmt.Fprintln(out, rec.Revision)
	return nil
}

func StoreList(ctx context.Context, s store.Store, out io.Writer) error {
	recs, err := s.List(ctx)
	if err != nil {
		return Error.Wrap(err, SetExitCode(ExitUser))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREVISION\tENCODING\tSIZE\tSTORED")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Name, rec.Revision, rec.Encoding,
			humanize.Bytes(uint64(len(rec.Payload))), humanize.Time(rec.StoredAt))
	}
	return w.Flush()
}

func StoreRemove(ctx context.Context, c *cli.Context, s store.Store, log log15.Logger) error {
	if c.NArg() != 1 {
		return Error.NewWith("store rm requires a name", SetExitCode(ExitBadArgs))
	}
	name := c.Args().First()

	ok, err := s.Delete(ctx, name)
	if err != nil {
		return Error.Wrap(err, SetExitCode(ExitUser))
	}
	if !ok {
		return Error.NewWith(fmt.Sprintf("no model named %q", name), SetExitCode(ExitUser))
	}

	log.Info("model deleted", "name", name)
	return nil
}
