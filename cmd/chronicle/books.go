package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
)

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage books",
		RunE:  runBooksList,
	}

	cmd.AddCommand(
		newBooksListCmd(),
		newBooksCreateCmd(),
		newBooksUseCmd(),
	)

	return cmd
}

func newBooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE:  runBooksList,
	}
}

func runBooksList(cmd *cobra.Command, args []string) error {
	return withDeps(cmd.Context(), func(d *Deps) error {
		names := d.Books.Names()
		if len(names) == 0 {
			fmt.Println("No books configured.")
			fmt.Println("Use 'chronicle books create NAME' to create a book.")
			return nil
		}

		fmt.Printf("  %-20s %-38s %s\n", "NAME", "ID", "DESCRIPTION")
		fmt.Printf("  %-20s %-38s %s\n", "----", "--", "-----------")

		for _, name := range names {
			book := d.Books.Books[name]
			marker := " "
			if name == d.Books.Current {
				marker = "*"
			}
			fmt.Printf("%s %-20s %-38s %s\n", marker, name, book.ID, book.Description)
		}
		return nil
	})
}

func newBooksCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooksCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Book description")

	return cmd
}

func runBooksCreate(cmd *cobra.Command, name string, description string) error {
	return withDeps(cmd.Context(), func(d *Deps) error {
		if _, exists := d.Books.Books[config.SanitizeBookName(name)]; exists {
			return fmt.Errorf("book %q already exists", name)
		}

		book, err := d.StoryHandler.HandleCreateBook(cmd.Context(), name, description)
		if err != nil {
			return fmt.Errorf("creating book: %w", err)
		}

		key := d.Books.Add(name, config.BookEntry{ID: book.ID, Description: description})
		if err := d.Books.Save(d.BasePath); err != nil {
			return fmt.Errorf("saving books: %w", err)
		}

		fmt.Printf("Created book %q (%s)\n", key, book.ID)
		if d.Books.Current == key {
			fmt.Println("  (current book)")
		}
		return nil
	})
}

func newBooksUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Set the current book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				key := config.SanitizeBookName(args[0])
				if _, ok := d.Books.Books[key]; !ok {
					_, err := d.Books.Resolve(args[0])
					return err
				}
				d.Books.Current = key
				if err := d.Books.Save(d.BasePath); err != nil {
					return fmt.Errorf("saving books: %w", err)
				}
				fmt.Printf("Current book: %s\n", key)
				return nil
			})
		},
	}
}
