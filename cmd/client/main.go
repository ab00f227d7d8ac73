package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/client"
	"github.com/ledgergames/splitsecond/pkg/client/idstore"
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "splitsecond",
		Usage: "Play the 10-second challenge against a splitsecond ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "http://localhost:8080",
				Usage: "Ledger server base URL",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Value: defaultDataDir(),
				Usage: "Directory for the wallet key and cached object ids",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "Create (or rediscover) your game and the shared leaderboard",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "board",
						Usage: "Join an existing leaderboard by id instead of creating one",
					},
					&cli.StringFlag{
						Name:  "game",
						Usage: "Use an existing game by id instead of creating one",
					},
				},
				Action: runSetup,
			},
			{
				Name:   "start",
				Usage:  "Start the timer, then try to stop it after exactly 10 seconds",
				Action: runStart,
			},
			{
				Name:  "stop",
				Usage: "Stop the timer and record your score",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Nickname shown on the leaderboard",
					},
				},
				Action: runStop,
			},
			{
				Name:   "reset",
				Usage:  "Reset your personal best",
				Action: runReset,
			},
			{
				Name:   "game",
				Usage:  "Show your game state",
				Action: runGame,
			},
			{
				Name:   "board",
				Usage:  "Show the leaderboard top 10",
				Action: runBoard,
			},
			{
				Name:   "watch",
				Usage:  "Stream result events as other players finish attempts",
				Action: runWatch,
			},
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".splitsecond"
	}
	return filepath.Join(home, ".splitsecond")
}

type session struct {
	client *client.Client
	store  *idstore.Store
}

// newSession builds the wallet and client from the persisted data dir.
// The wallet key is the whole identity; the address is derived from it,
// so there is nothing to exchange with the server ahead of time. Cached
// object ids in the store are just that, a cache; commands revalidate
// them by fetching before relying on them.
func newSession(cmd *cli.Command) (*session, error) {
	dataDir := cmd.String("data-dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %v", err)
	}

	key, err := auth.LoadOrCreateKey(filepath.Join(dataDir, "wallet.key"))
	if err != nil {
		return nil, err
	}

	return &session{
		client: client.NewClient(client.NewClientOptions{
			BaseURL: cmd.String("server"),
			Wallet:  auth.NewWallet(key),
		}),
		store: idstore.Load(filepath.Join(dataDir, "ids.json")),
	}, nil
}

func runSetup(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.setupLeaderboard(ctx, cmd.String("board")); err != nil {
		return err
	}
	return s.setupGame(ctx, cmd.String("game"))
}

// setupLeaderboard resolves the leaderboard to play on, in order of
// preference: an explicitly supplied id (how a second player joins a
// board someone else created), the cached id, a fresh board. Supplied
// and cached ids are validated by fetching before being trusted.
func (s *session) setupLeaderboard(ctx context.Context, suppliedID string) error {
	if suppliedID != "" {
		if _, err := s.client.FetchLeaderboard(ctx, suppliedID); err != nil {
			return fmt.Errorf("failed to validate leaderboard %s: %v", suppliedID, err)
		}
		if err := s.store.Set(idstore.KeyLeaderboardID, suppliedID); err != nil {
			return err
		}
		fmt.Printf("Joined leaderboard %s\n", suppliedID)
		return nil
	}

	boardID, ok := s.store.Get(idstore.KeyLeaderboardID)
	if ok {
		if _, err := s.client.FetchLeaderboard(ctx, boardID); err != nil {
			if !client.IsNotFound(err) {
				return err
			}
			ok = false
		}
	}
	if !ok {
		var err error
		boardID, err = s.client.CreateLeaderboard(ctx)
		if err != nil {
			return err
		}
		if err := s.store.Set(idstore.KeyLeaderboardID, boardID); err != nil {
			return err
		}
		fmt.Printf("Created leaderboard %s\n", boardID)
		fmt.Println("Share this id so other players can join with setup --board")
	} else {
		fmt.Printf("Using leaderboard %s\n", boardID)
	}
	return nil
}

func (s *session) setupGame(ctx context.Context, suppliedID string) error {
	if suppliedID != "" {
		if _, err := s.client.FetchGame(ctx, suppliedID); err != nil {
			return fmt.Errorf("failed to validate game %s: %v", suppliedID, err)
		}
		if err := s.store.Set(idstore.KeyGameID, suppliedID); err != nil {
			return err
		}
		fmt.Printf("Using game %s\n", suppliedID)
		return nil
	}

	gameID, ok := s.store.Get(idstore.KeyGameID)
	if ok {
		if _, err := s.client.FetchGame(ctx, gameID); err != nil {
			if !client.IsNotFound(err) {
				return err
			}
			ok = false
		}
	}
	if !ok {
		// an existing game may be recoverable from the ledger before
		// creating a fresh one
		var err error
		gameID, err = s.client.FindOwnedGame(ctx)
		if client.IsNotFound(err) {
			gameID, err = s.client.CreateGame(ctx)
			if err == nil {
				fmt.Printf("Created game %s\n", gameID)
			}
		}
		if err != nil {
			return err
		}
		if err := s.store.Set(idstore.KeyGameID, gameID); err != nil {
			return err
		}
	}
	fmt.Printf("Using game %s\n", gameID)
	return nil
}

func (s *session) gameID() (string, error) {
	gameID, ok := s.store.Get(idstore.KeyGameID)
	if !ok {
		return "", fmt.Errorf("no game id cached, run setup first")
	}
	return gameID, nil
}

func (s *session) boardID() (string, error) {
	boardID, ok := s.store.Get(idstore.KeyLeaderboardID)
	if !ok {
		return "", fmt.Errorf("no leaderboard id cached, run setup first")
	}
	return boardID, nil
}

func runStart(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	gameID, err := s.gameID()
	if err != nil {
		return err
	}

	if _, err := s.client.Start(ctx, gameID); err != nil {
		return err
	}
	fmt.Println("Timer started. Stop it in exactly 10 seconds.")
	return nil
}

func runStop(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	gameID, err := s.gameID()
	if err != nil {
		return err
	}
	boardID, err := s.boardID()
	if err != nil {
		return err
	}

	state, entries, err := s.client.Stop(ctx, gameID, boardID, cmd.String("name"))
	if err != nil {
		return err
	}

	if state.BestDiffMs != nil {
		fmt.Printf("Personal best: %dms off target\n", *state.BestDiffMs)
	}
	printBoard(entries)
	return nil
}

func runReset(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	gameID, err := s.gameID()
	if err != nil {
		return err
	}

	if _, err := s.client.ResetBest(ctx, gameID); err != nil {
		return err
	}
	fmt.Println("Personal best reset.")
	return nil
}

func runGame(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	gameID, err := s.gameID()
	if err != nil {
		return err
	}

	state, err := s.client.FetchGame(ctx, gameID)
	if err != nil {
		return err
	}

	fmt.Printf("Game %s\n", state.GameID)
	if state.ActiveStartMs != nil {
		fmt.Printf("  timer running since %dms\n", *state.ActiveStartMs)
	} else {
		fmt.Println("  timer idle")
	}
	if state.BestDiffMs != nil {
		fmt.Printf("  personal best: %dms off target\n", *state.BestDiffMs)
	}
	return nil
}

func runBoard(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	boardID, err := s.boardID()
	if err != nil {
		return err
	}

	entries, err := s.client.FetchLeaderboard(ctx, boardID)
	if err != nil {
		return err
	}
	printBoard(entries)
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Watching result events (ctrl-c to stop)")
	return s.client.SubscribeEvents(ctx, func(event gametypes.ResultEvent) {
		log.Info("%s finished %dms off target (best %dms)", event.Player, event.DiffMs, event.NewBestMs)
	})
}

func printBoard(entries []client.BoardEntry) {
	top := client.TopEntries(entries, client.TopCount)
	if len(top) == 0 {
		fmt.Println("Leaderboard is empty.")
		return
	}
	fmt.Println("Leaderboard:")
	for i, entry := range top {
		fmt.Printf("  %2d. %-16s %6dms  (%s)\n", i+1, entry.Name, entry.BestDiffMs, entry.Player)
	}
}
