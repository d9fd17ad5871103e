// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, markdown, txt",
		Value:   value,
	}
}

func maxFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "max",
		Aliases: []string{"n"},
		Usage:   "Maximum number of search results (default from config)",
	}
}

func urlArg() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name: "url",
		},
	}
}

func queryArg() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name: "query",
		},
	}
}

// searchCommand searches the configured source
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search for songs",
		Arguments: queryArg(),
		Flags: append(outputFlags(),
			maxFlag(),
			formatFlag("txt"),
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Record the search in the library history",
			},
		),
		Action: r.Search,
	}
}

// linksCommand lists the download links of a song page
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "links",
		Usage:     "List the download links of a song page",
		Arguments: urlArg(),
		Flags:     outputFlags(),
		Action:    r.Links,
	}
}

// infoCommand shows the metadata of a song page
func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show name, artist, album, year and lyrics of a song page",
		Arguments: urlArg(),
		Flags:     outputFlags(),
		Action:    r.Info,
	}
}

// songCommand fetches a whole song page
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "song",
		Usage:     "Fetch metadata and download links of a song page",
		Arguments: urlArg(),
		Flags: append(outputFlags(),
			formatFlag("txt"),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the song to a file in this directory",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the song to the library",
			},
		),
		Action: r.Song,
	}
}

// fetchCommand searches and fetches every result concurrently
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Search and fetch the song page of every result",
		Arguments: queryArg(),
		Flags: append(outputFlags(),
			maxFlag(),
			formatFlag("json"),
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Write one file per song and a manifest to this directory",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers (default from config)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Page requests per second (default from config)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save fetched songs to the library",
			},
		),
		Action: r.Fetch,
	}
}

// pickCommand launches the interactive result picker
func pickCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "pick",
		Usage:     "Pick a search result and download link interactively",
		Arguments: queryArg(),
		Flags: []cli.Flag{
			maxFlag(),
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for songs written by a bulk fetch",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Allow saving songs to the library",
				Value: true,
			},
		},
		Action: r.Pick,
	}
}

// refreshURLCommand rewrites a stale download URL
func refreshURLCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "refresh-url",
		Usage:     "Rewrite a download URL to the next (or previous) mirror",
		Arguments: urlArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "decrement",
				Usage: "Step the numeric prefix down instead of up",
			},
		},
		Action: r.RefreshURL,
	}
}

// sizeCommand reports the size of a remote file
func sizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "size",
		Usage:     "Report the size of a remote file from its Content-Length",
		Arguments: urlArg(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "unit",
				Aliases: []string{"u"},
				Usage:   "B, KB, MB or GB",
				Value:   "MB",
			},
		},
		Action: r.Size,
	}
}

// sourcesCommand lists registered sources
func sourcesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sources",
		Usage:  "List registered sources",
		Flags:  outputFlags(),
		Action: r.Sources,
	}
}

// qualityCommand groups quality helpers
func qualityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "quality",
		Usage: "Audio quality helpers",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List known qualities, best first",
				Action: r.QualityList,
			},
			{
				Name:      "best",
				Usage:     "Pick one download link of a song page by preference",
				Arguments: urlArg(),
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:    "prefer",
						Aliases: []string{"p"},
						Usage:   "best, middle or lowest",
						Value:   "best",
					},
				),
				Action: r.QualityBest,
			},
		},
	}
}

// cacheCommand manages the on-disk cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached values",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cache files and whether they are expired",
				Flags:  outputFlags(),
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cache file",
				Action: r.CacheClear,
			},
		},
	}
}

// libraryCommand manages saved songs
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage songs saved in the local database",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved songs, newest first",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only songs whose artist contains this text",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only songs from this source",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of songs to return",
						Value: 50,
					},
				),
				Action: r.LibraryList,
			},
			{
				Name:  "show",
				Usage: "Show a saved song by ID or page URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  append(outputFlags(), formatFlag("txt")),
				Action: r.LibraryShow,
			},
			{
				Name:      "save",
				Usage:     "Fetch a song page and save it",
				Arguments: urlArg(),
				Action:    r.LibrarySave,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved song by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryDelete,
			},
			{
				Name:  "history",
				Usage: "Show recorded searches",
				Flags: append(outputFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of searches to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete the history instead",
					},
				),
				Action: r.LibraryHistory,
			},
		},
	}
}

// spotifyCommand handles Spotify authentication
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Print an access token, logging in when the cache holds none",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Usage: "Token cache owner (default from config)",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "paste or callback (default from config)",
					},
				},
				Action: r.SpotifyToken,
			},
			{
				Name:  "whoami",
				Usage: "Show the profile of the cached token",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:  "username",
						Usage: "Token cache owner (default from config)",
					},
				),
				Action: r.SpotifyWhoami,
			},
		},
	}
}

// setupCommand initializes config and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file or initialize the database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// onlineCommand checks internet connectivity
func onlineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "online",
		Usage:  "Check internet connectivity",
		Action: r.Online,
	}
}
