package catalog

// DefaultURL is where the maintained catalog is published.
const DefaultURL = "https://raw.githubusercontent.com/Vvyiloff/Post-Install/main/packages.json"

// Default returns the built-in catalog used when no other source is available.
func Default() []Entry {
	return []Entry{
		{Name: "Steam", ID: "Valve.Steam", Group: "Игры"},
		{Name: "Epic Games Launcher", ID: "EpicGames.EpicGamesLauncher", Group: "Игры"},
		{Name: "Ubisoft Connect", ID: "Ubisoft.Connect", Group: "Игры"},
		{Name: "VALORANT (EU)", ID: "RiotGames.Valorant.EU", Group: "Игры", Reboot: true},

		{Name: "Visual Studio Code", ID: "Microsoft.VisualStudioCode", Group: "Разработка"},
		{Name: "Git", ID: "Git.Git", Group: "Разработка"},
		{Name: "Cursor", ID: "Anysphere.Cursor", Group: "Разработка"},
		{Name: "Termius", ID: "Termius.Termius", Group: "Разработка"},
		{Name: "Unity Hub", ID: "Unity.UnityHub", Group: "Разработка"},

		{Name: "Google Chrome", ID: "Google.Chrome", Group: "Базовый софт"},
		{Name: "Telegram", ID: "Telegram.TelegramDesktop", Group: "Базовый софт"},
		{Name: "7-Zip", ID: "7zip.7zip", Group: "Базовый софт"},
		{Name: "VLC", ID: "VideoLAN.VLC", Group: "Базовый софт"},
		{Name: "Paint.NET", ID: "dotPDN.PaintDotNet", Group: "Базовый софт"},
	}
}
